package homepage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoadServices(t *testing.T) {
	path := writeFile(t, "services.yaml", `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: https://adguard.domain.ext
        description: Network-wide ads & trackers blocking DNS server
`)

	config, err := NewLoader(path).LoadServices()
	if err != nil {
		t.Fatalf("LoadServices() error = %v", err)
	}
	if len(config) == 0 {
		t.Fatal("LoadServices() returned empty config")
	}
}

func TestLoaderLoadBookmarks(t *testing.T) {
	path := writeFile(t, "bookmarks.yaml", `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go Docs:
        - abbr: GO
          href: https://go.dev/doc/
`)

	config, err := NewLoader(path).LoadBookmarks()
	if err != nil {
		t.Fatalf("LoadBookmarks() error = %v", err)
	}
	if len(config) != 1 || len(config[0]["Developer"]) != 2 {
		t.Errorf("LoadBookmarks() = %v, want one group with two bookmarks", config)
	}
}

func TestLoaderLoadWithTemplateVariables(t *testing.T) {
	path := writeFile(t, "services.yaml", `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: {{HOMEPAGE_VAR_ADGUARD_URL}}
        description: Test
`)

	config, err := NewLoader(path).LoadServices()
	if err != nil {
		t.Fatalf("LoadServices() error = %v", err)
	}
	if len(config) == 0 {
		t.Fatal("LoadServices() returned empty config")
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/services.yaml")
	if _, err := loader.LoadServices(); err == nil {
		t.Error("LoadServices() with non-existent file should return error")
	}
}

func TestLoaderKind(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"/etc/homepage/services.yaml", KindServices},
		{"/etc/homepage/Services.yml", KindServices},
		{"/etc/homepage/bookmarks.yaml", KindBookmarks},
		{"links.yaml", KindBookmarks},
	}
	for _, tt := range tests {
		if got := NewLoader(tt.path).Kind(); got != tt.want {
			t.Errorf("Kind(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestImportFile(t *testing.T) {
	path := writeFile(t, "bookmarks.yaml", `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
`)

	res, err := ImportFile(path, "")
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if len(res.Links) != 1 || res.Links[0].Title != "Github" {
		t.Errorf("ImportFile() links = %+v", res.Links)
	}
	if len(res.Categories) != 1 || res.Categories[0].ID != "developer" {
		t.Errorf("ImportFile() categories = %+v", res.Categories)
	}

	if _, err := ImportFile(path, Kind("widgets")); err == nil {
		t.Error("ImportFile() with unknown kind should return error")
	}
}

func TestStripTemplateVariablesFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{HOMEPAGE_VAR_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
