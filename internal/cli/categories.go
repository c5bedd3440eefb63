package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/ordering"
)

func newCategoriesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their link counts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			doc := rt.engine.Document()
			w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tICON\tLINKS\tLOCKED")
			for _, c := range doc.Categories {
				locked := ""
				if c.Password != "" {
					locked = "🔒"
				}
				n := len(ordering.CategoryView(doc.Links, c.ID))
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Name, c.Icon, n, locked)
			}
			return w.Flush()
		},
	}
}

func newCategoryCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Add, update or delete categories",
	}
	cmd.AddCommand(newCategoryAddCmd(rt), newCategoryRemoveCmd(rt))
	return cmd
}

func newCategoryAddCmd(rt *runtime) *cobra.Command {
	var icon, password string
	cmd := &cobra.Command{
		Use:     "add <id> <name>",
		Aliases: []string{"set"},
		Short:   "Add a category, or update the one with the same id",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := domain.Category{ID: args[0], Name: args[1], Icon: icon, Password: password}
			created, err := rt.engine.UpsertCategory(cmd.Context(), c)
			if err != nil {
				return err
			}
			verb := "updated"
			if created {
				verb = "added"
			}
			fmt.Fprintf(rt.out, "✅ %s category %s\n", verb, c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "Folder", "icon name")
	cmd.Flags().StringVar(&password, "password", "", "hide the category links behind this password")
	return cmd
}

func newCategoryRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a category, moving its links to the fallback category",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moved, err := rt.engine.DeleteCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "🗑️  deleted category %s, %d link(s) moved to %s\n",
				args[0], moved, domain.FallbackCategoryID)
			return nil
		},
	}
}
