package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cloudnav/internal/sources/homepage"
)

func newImportCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import links from other dashboards",
	}
	cmd.AddCommand(newImportHomepageCmd(rt))
	return cmd
}

func newImportHomepageCmd(rt *runtime) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "homepage <file.yaml>",
		Short: "Import a Homepage bookmarks.yaml or services.yaml",
		Long: `Import a Homepage (gethomepage.dev) configuration file.

Each group becomes a category and each entry a link appended to it.
Categories that already exist by id or name are reused. The layout is
guessed from the file name unless --kind is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := homepage.Kind(kind)
			switch k {
			case "", homepage.KindBookmarks, homepage.KindServices:
			default:
				return fmt.Errorf("--kind must be %s or %s, got %q", homepage.KindBookmarks, homepage.KindServices, kind)
			}

			res, err := homepage.ImportFile(args[0], k)
			if err != nil {
				return err
			}
			merged, err := rt.engine.Import(cmd.Context(), res.Links, res.Categories)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "📥 imported %d link(s), created %d category(ies)\n",
				merged.LinksAdded, merged.CategoriesAdded)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "file layout: bookmarks or services")
	return cmd
}
