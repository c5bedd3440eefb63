package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

const redacted = "***REDACTED***"

// configFile is the YAML layout of 'config show' and 'config import'.
// Absent sections are left alone on import.
type configFile struct {
	Search *domain.SearchConfig `yaml:"search,omitempty"`
	AI     *domain.AIConfig     `yaml:"ai,omitempty"`
	Site   *domain.SiteSettings `yaml:"site,omitempty"`
	WebDAV *domain.WebDAVConfig `yaml:"webdav,omitempty"`
}

func newConfigCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or import the dashboard settings",
	}
	cmd.AddCommand(newConfigShowCmd(rt), newConfigImportCmd(rt))
	return cmd
}

func newConfigShowCmd(rt *runtime) *cobra.Command {
	var secrets bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := rt.engine.Document()
			cf := configFile{Search: doc.SearchConfig, AI: doc.AIConfig, Site: doc.SiteSettings}

			dav, ok, err := rt.cache.LoadWebDAVConfig(cmd.Context())
			if err != nil {
				return err
			}
			if ok {
				cf.WebDAV = &dav
			}
			if !secrets {
				cf = cf.redacted()
			}

			enc := yaml.NewEncoder(rt.out)
			enc.SetIndent(2)
			if err := enc.Encode(cf); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&secrets, "show-secrets", false, "print api keys and passwords")
	return cmd
}

func newConfigImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Apply settings from a YAML file ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			cf, err := decodeConfigFile(raw)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			applied := 0
			if cf.Search != nil {
				if err := rt.engine.SetSearchConfig(ctx, *cf.Search); err != nil {
					return fmt.Errorf("search: %w", err)
				}
				applied++
			}
			if cf.AI != nil {
				if err := rt.engine.SetAIConfig(ctx, *cf.AI); err != nil {
					return fmt.Errorf("ai: %w", err)
				}
				applied++
			}
			if cf.Site != nil {
				if err := rt.engine.SetSiteSettings(ctx, *cf.Site); err != nil {
					return fmt.Errorf("site: %w", err)
				}
				applied++
			}
			if cf.WebDAV != nil {
				if err := rt.engine.SetWebDAVConfig(ctx, *cf.WebDAV); err != nil {
					return fmt.Errorf("webdav: %w", err)
				}
				applied++
			}
			fmt.Fprintf(rt.out, "✅ applied %d section(s)\n", applied)
			return nil
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func decodeConfigFile(raw []byte) (configFile, error) {
	var cf configFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		if errors.Is(err, io.EOF) {
			return cf, errors.New("empty settings file")
		}
		return cf, fmt.Errorf("parse settings: %w", err)
	}
	return cf, nil
}

// redacted returns a copy with api keys and passwords masked.
func (c configFile) redacted() configFile {
	if c.AI != nil && c.AI.APIKey != "" {
		ai := *c.AI
		ai.APIKey = redacted
		c.AI = &ai
	}
	if c.WebDAV != nil && c.WebDAV.Password != "" {
		dav := *c.WebDAV
		dav.Password = redacted
		c.WebDAV = &dav
	}
	return c
}
