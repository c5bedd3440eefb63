package homepage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage services.yaml or bookmarks.yaml file.
type Loader struct {
	filePath string
}

// NewLoader creates a new Homepage loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Kind guesses the layout from the file name, bookmarks unless the name
// mentions services.
func (l *Loader) Kind() Kind {
	if strings.Contains(strings.ToLower(filepath.Base(l.filePath)), string(KindServices)) {
		return KindServices
	}
	return KindBookmarks
}

// LoadServices reads and parses a services.yaml file
func (l *Loader) LoadServices() (ServicesConfig, error) {
	var config ServicesConfig
	if err := l.read(KindServices, &config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadBookmarks reads and parses a bookmarks.yaml file
func (l *Loader) LoadBookmarks() (BookmarksConfig, error) {
	var config BookmarksConfig
	if err := l.read(KindBookmarks, &config); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) read(kind Kind, v any) error {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s file: %w", kind, err)
	}

	// Homepage template variables ({{HOMEPAGE_VAR_...}}) cannot be resolved here
	data = stripTemplateVariables(data)

	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s yaml: %w", kind, err)
	}
	return nil
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
