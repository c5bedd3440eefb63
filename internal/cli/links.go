package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/ordering"
)

func newLinksCmd(rt *runtime) *cobra.Command {
	var (
		category string
		search   string
		pinned   bool
		unlock   []string
	)
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List links in display order",
		Long: `List links in display order: pinned links first, then each category.

Links of password protected categories are hidden unless unlocked with
--unlock <category-id>=<password>.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			doc := rt.engine.Document()
			unlocked, err := unlockCategories(doc.Categories, unlock)
			if err != nil {
				return err
			}

			var links []domain.Link
			switch {
			case search != "":
				links = ordering.SearchView(doc.Links, search)
			case pinned:
				links = ordering.PinnedView(doc.Links)
			case category != "":
				links = ordering.CategoryView(doc.Links, category)
			default:
				links = doc.Links
			}
			links = ordering.VisibleLinks(links, doc.Categories, unlocked)

			if len(links) == 0 {
				fmt.Fprintln(rt.out, "No links.")
				return nil
			}
			return printLinks(rt.out, links, doc.Categories)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only links of this category id ('all' for every link)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title, url or description")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "only pinned links, in pinned order")
	cmd.Flags().StringArrayVar(&unlock, "unlock", nil, "show a locked category: <category-id>=<password>")
	return cmd
}

// unlockCategories checks each id=password pair against the category passwords.
func unlockCategories(categories []domain.Category, pairs []string) (map[string]bool, error) {
	unlocked := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		id, password, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("--unlock expects <category-id>=<password>, got %q", pair)
		}
		found := false
		for _, c := range categories {
			if c.ID != id {
				continue
			}
			found = true
			if c.Password != password {
				return nil, fmt.Errorf("wrong password for category %q", id)
			}
			unlocked[id] = true
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ordering.ErrCategoryNotFound, id)
		}
	}
	return unlocked, nil
}

func printLinks(out io.Writer, links []domain.Link, categories []domain.Category) error {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPIN\tTITLE\tURL\tCATEGORY")
	for _, l := range links {
		pin := ""
		if l.Pinned {
			pin = "📌"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, pin, l.Title, l.URL, names[l.CategoryID])
	}
	return w.Flush()
}

func newJumpCmd(rt *runtime) *cobra.Command {
	var (
		all    bool
		unlock []string
	)
	cmd := &cobra.Command{
		Use:   "jump <query>...",
		Short: "Print the url of the link that best matches a query",
		Long: `Print the url of the link that best matches a query.

Title words and hostname labels are matched by exact, prefix, substring and
fuzzy comparison, so 'cloudnav jump jelly' finds https://jellyfin.home.lan.
Use it from a shell: xdg-open "$(cloudnav jump jelly)".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc := rt.engine.Document()
			unlocked, err := unlockCategories(doc.Categories, unlock)
			if err != nil {
				return err
			}
			visible := ordering.VisibleLinks(doc.Links, doc.Categories, unlocked)
			matches := ordering.Rank(visible, strings.Join(args, " "))
			if len(matches) == 0 {
				return fmt.Errorf("no link matches %q", strings.Join(args, " "))
			}
			if !all {
				fmt.Fprintln(rt.out, matches[0].Link.URL)
				return nil
			}

			w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tTITLE\tURL")
			for _, m := range matches {
				fmt.Fprintf(w, "%.1f\t%s\t%s\n", m.Score, m.Link.Title, m.Link.URL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every match with its score")
	cmd.Flags().StringArrayVar(&unlock, "unlock", nil, "search a locked category: <category-id>=<password>")
	return cmd
}

func newAddCmd(rt *runtime) *cobra.Command {
	var l domain.Link
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a link at the end of its category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l.URL = args[0]
			added, err := rt.engine.AddLink(cmd.Context(), l)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "✅ added %s (%s)\n", added.Title, added.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&l.Title, "title", "t", "", "title (defaults to the url)")
	f.StringVarP(&l.CategoryID, "category", "c", domain.FallbackCategoryID, "category id")
	f.StringVarP(&l.Description, "desc", "d", "", "description")
	f.StringVar(&l.Icon, "icon", "", "icon name or url")
	f.BoolVar(&l.Pinned, "pin", false, "pin the link")
	return cmd
}

func newEditCmd(rt *runtime) *cobra.Command {
	var title, url, desc, icon, category string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch ordering.LinkPatch
			f := cmd.Flags()
			if f.Changed("title") {
				patch.Title = &title
			}
			if f.Changed("url") {
				patch.URL = &url
			}
			if f.Changed("desc") {
				patch.Description = &desc
			}
			if f.Changed("icon") {
				patch.Icon = &icon
			}
			if f.Changed("category") {
				patch.CategoryID = &category
			}
			if patch == (ordering.LinkPatch{}) {
				return fmt.Errorf("nothing to change, pass at least one of --title --url --desc --icon --category")
			}
			if err := rt.engine.EditLink(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "✅ updated %s\n", args[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&title, "title", "t", "", "new title")
	f.StringVar(&url, "url", "", "new url")
	f.StringVarP(&desc, "desc", "d", "", "new description")
	f.StringVar(&icon, "icon", "", "new icon")
	f.StringVarP(&category, "category", "c", "", "move to this category (order is kept)")
	return cmd
}

func newRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete links",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rt.engine.DeleteLinks(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "🗑️  deleted %d link(s)\n", n)
			return nil
		},
	}
}

func newMoveCmd(rt *runtime) *cobra.Command {
	var (
		to       int
		category string
	)
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a link to a position within its category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if category == "" {
				doc := rt.engine.Document()
				i := doc.FindLink(id)
				if i < 0 {
					return fmt.Errorf("%w: %s", ordering.ErrLinkNotFound, id)
				}
				category = doc.Links[i].CategoryID
			}
			if err := rt.engine.MoveLink(cmd.Context(), category, id, to); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "✅ moved %s to position %d\n", id, to)
			return nil
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "zero based target position")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category view to reorder ('all' for the global view)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newMovePinnedCmd(rt *runtime) *cobra.Command {
	var to int
	cmd := &cobra.Command{
		Use:   "move-pinned <id>",
		Short: "Move a pinned link within the pinned section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.engine.MovePinned(cmd.Context(), args[0], to); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "✅ moved %s to pinned position %d\n", args[0], to)
			return nil
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "zero based target position")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newPinCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin or unpin a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pinned, err := rt.engine.TogglePin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if pinned {
				fmt.Fprintf(rt.out, "📌 pinned %s\n", args[0])
			} else {
				fmt.Fprintf(rt.out, "unpinned %s\n", args[0])
			}
			return nil
		},
	}
}
