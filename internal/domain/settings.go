package domain

// Search modes.
const (
	SearchModeInternal = "internal"
	SearchModeExternal = "external"
)

// Card styles.
const (
	CardStyleDetailed = "detailed"
	CardStyleSimple   = "simple"
)

// SearchSource is one external search engine template. {query} is substituted.
type SearchSource struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	Name      string `json:"name" yaml:"name" validate:"required"`
	URL       string `json:"url" yaml:"url" validate:"required"`
	Icon      string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	CreatedAt int64  `json:"createdAt" yaml:"createdAt"`
}

// SearchConfig controls the search box.
type SearchConfig struct {
	Mode            string         `json:"mode" yaml:"mode" validate:"omitempty,oneof=internal external"`
	ExternalSources []SearchSource `json:"externalSources" yaml:"externalSources" validate:"dive"`
	SelectedSource  *SearchSource  `json:"selectedSource,omitempty" yaml:"selectedSource,omitempty"`
}

// AIConfig holds the credentials for the link description assistant.
type AIConfig struct {
	Provider string `json:"provider" yaml:"provider" validate:"omitempty,oneof=gemini openai"`
	APIKey   string `json:"apiKey" yaml:"apiKey"`
	BaseURL  string `json:"baseUrl" yaml:"baseUrl"`
	Model    string `json:"model" yaml:"model"`
}

// SiteSettings are the cosmetic dashboard settings.
type SiteSettings struct {
	Title              string `json:"title" yaml:"title"`
	NavTitle           string `json:"navTitle" yaml:"navTitle"`
	Favicon            string `json:"favicon" yaml:"favicon"`
	CardStyle          string `json:"cardStyle" yaml:"cardStyle" validate:"omitempty,oneof=detailed simple"`
	PasswordExpiryDays int    `json:"passwordExpiryDays" yaml:"passwordExpiryDays" validate:"gte=0"`
}

// WebDAVConfig is kept on the device only and never synced.
type WebDAVConfig struct {
	URL      string `json:"url" yaml:"url" validate:"omitempty,url"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
}

// DefaultSearchConfig returns the external engines shipped with a new dashboard.
func DefaultSearchConfig(now int64) SearchConfig {
	src := func(id, name, url, icon string) SearchSource {
		return SearchSource{ID: id, Name: name, URL: url, Icon: icon, Enabled: true, CreatedAt: now}
	}
	return SearchConfig{
		Mode: SearchModeExternal,
		ExternalSources: []SearchSource{
			src("bing", "必应", "https://www.bing.com/search?q={query}", "Search"),
			src("google", "Google", "https://www.google.com/search?q={query}", "Search"),
			src("baidu", "百度", "https://www.baidu.com/s?wd={query}", "Globe"),
			src("sogou", "搜狗", "https://www.sogou.com/web?query={query}", "Globe"),
			src("yandex", "Yandex", "https://yandex.com/search/?text={query}", "Globe"),
			src("github", "GitHub", "https://github.com/search?q={query}", "Github"),
			src("linuxdo", "Linux.do", "https://linux.do/search?q={query}", "Terminal"),
			src("bilibili", "B站", "https://search.bilibili.com/all?keyword={query}", "Play"),
			src("youtube", "YouTube", "https://www.youtube.com/results?search_query={query}", "Video"),
			src("wikipedia", "维基", "https://zh.wikipedia.org/wiki/Special:Search?search={query}", "BookOpen"),
		},
	}
}

// DefaultAIConfig mirrors the assistant defaults of a new dashboard.
func DefaultAIConfig() AIConfig {
	return AIConfig{Provider: "gemini", Model: "gemini-2.5-flash"}
}

// DefaultSiteSettings mirrors the site defaults of a new dashboard.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		Title:              "CloudNav - 我的导航",
		NavTitle:           "CloudNav",
		CardStyle:          CardStyleDetailed,
		PasswordExpiryDays: 7,
	}
}
