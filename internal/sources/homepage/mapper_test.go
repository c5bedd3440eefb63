package homepage

import (
	"errors"
	"testing"
	"time"
)

func fixedMapper() *Mapper {
	return &Mapper{now: func() time.Time { return time.UnixMilli(1_700_000_000_000) }}
}

func TestMapperMapServices(t *testing.T) {
	config := ServicesConfig{
		{
			"Infrastructure": []map[string]ServiceProps{
				{
					"AdGuard Home": {
						Icon:        "adguard-home.svg",
						Href:        "https://adguard.domain.ext",
						Description: "Network-wide ads blocking",
					},
				},
				{
					"Traefik": {
						Icon:        "traefik.svg",
						Href:        "https://traefik.domain.ext",
						Description: "Cloud Native Application Proxy",
					},
				},
			},
		},
	}

	res, err := fixedMapper().MapServices(config)
	if err != nil {
		t.Fatalf("MapServices() error = %v", err)
	}

	if len(res.Links) != 2 {
		t.Fatalf("MapServices() returned %v links, want 2", len(res.Links))
	}
	if res.Links[0].Title != "AdGuard Home" || res.Links[1].Title != "Traefik" {
		t.Errorf("links out of file order: %q, %q", res.Links[0].Title, res.Links[1].Title)
	}
	first := res.Links[0]
	if first.CategoryID != "infrastructure" || first.Description != "Network-wide ads blocking" ||
		first.Icon != "adguard-home.svg" || first.CreatedAt != 1_700_000_000_000 {
		t.Errorf("first link = %+v", first)
	}
	if len(res.Categories) != 1 || res.Categories[0].Name != "Infrastructure" {
		t.Errorf("categories = %+v", res.Categories)
	}
}

func TestMapperMapServicesEmptyConfig(t *testing.T) {
	_, err := NewMapper().MapServices(ServicesConfig{})
	if !errors.Is(err, ErrNothingToImport) {
		t.Errorf("MapServices() with empty config error = %v, want ErrNothingToImport", err)
	}
}

func TestMapperMapServicesInvalidURL(t *testing.T) {
	config := ServicesConfig{
		{
			"Test": []map[string]ServiceProps{
				{
					"Invalid Service": {
						Icon: "test.svg",
						Href: "not-a-valid-url",
					},
				},
			},
		},
	}

	res, err := NewMapper().MapServices(config)
	if err == nil {
		t.Error("MapServices() should return error when no valid services found")
	}
	if res.Links != nil {
		t.Errorf("MapServices() should return no links, got %v", len(res.Links))
	}
}

func TestMapperMapServicesMultipleGroups(t *testing.T) {
	config := ServicesConfig{
		{"Group1": []map[string]ServiceProps{{"Service1": {Href: "https://service1.example.com"}}}},
		{"Group2": []map[string]ServiceProps{{"Service2": {Href: "https://service2.example.com"}}}},
	}

	res, err := NewMapper().MapServices(config)
	if err != nil {
		t.Fatalf("MapServices() error = %v", err)
	}
	if len(res.Links) != 2 || len(res.Categories) != 2 {
		t.Errorf("MapServices() = %d links, %d categories, want 2 and 2", len(res.Links), len(res.Categories))
	}
}

func TestMapperMapBookmarks(t *testing.T) {
	config := BookmarksConfig{
		{
			"Developer": []map[string][]BookmarkEntry{
				{"Github": {{Abbr: "GH", Href: "https://github.com/", Icon: "github.png"}}},
				{"": {{Abbr: "GO", Href: "https://go.dev/"}}},
				{"Broken": {}},
				{"No href": {{Abbr: "NH"}}},
			},
		},
	}

	res, err := fixedMapper().MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}
	if len(res.Links) != 2 {
		t.Fatalf("MapBookmarks() returned %d links, want 2", len(res.Links))
	}
	if res.Links[0].Title != "Github" || res.Links[0].Icon != "github.png" {
		t.Errorf("first bookmark = %+v", res.Links[0])
	}
	if res.Links[1].Title != "GO" {
		t.Errorf("unnamed bookmark title = %q, want abbr GO", res.Links[1].Title)
	}
}

func TestLinkIDStable(t *testing.T) {
	a, b := linkID("https://github.com/"), linkID("https://github.com/")
	if a != b || len(a) != 16 {
		t.Errorf("linkID() = %q, %q, want equal 16-char ids", a, b)
	}
	if linkID("https://go.dev/") == a {
		t.Error("linkID() should differ for different URLs")
	}
}

func TestCategoryID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Media Center", "media-center"},
		{"  Dev / Ops  ", "dev-ops"},
		{"Home-Lab 2", "home-lab-2"},
	}
	for _, tt := range tests {
		if got := CategoryID(tt.name); got != tt.want {
			t.Errorf("CategoryID(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	got := CategoryID("常用工具")
	if len(got) != len("group-")+8 || got != CategoryID("常用工具") {
		t.Errorf("CategoryID() of a non-ASCII name = %q, want a stable hash id", got)
	}
}
