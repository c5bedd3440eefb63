package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cloudnav/internal/device"
	"github.com/MrSnakeDoc/cloudnav/internal/syncclient"
)

var noPull = map[string]string{annotationNoPull: "true"}

func newStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show the sync state of the local cache",
		Args:        cobra.NoArgs,
		Annotations: noPull,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := rt.engine.Status()
			doc := rt.engine.Document()

			login := "no"
			if r.Authenticated {
				login = "yes"
			}
			lastSync := "never"
			if !r.LastSync.IsZero() {
				lastSync = r.LastSync.Local().Format(time.DateTime)
			}
			unsynced, err := rt.cache.Unsynced(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(rt.out, "Server:       %s\n", rt.cfg.ServerURL)
			fmt.Fprintf(rt.out, "Logged in:    %s\n", login)
			fmt.Fprintf(rt.out, "Device:       %s\n", device.Label(r.DeviceID))
			fmt.Fprintf(rt.out, "Version:      %d\n", r.CurrentVersion)
			fmt.Fprintf(rt.out, "Last sync:    %s\n", lastSync)
			fmt.Fprintf(rt.out, "Unsynced:     %t\n", unsynced)
			fmt.Fprintf(rt.out, "Links:        %d\n", len(doc.Links))
			fmt.Fprintf(rt.out, "Categories:   %d\n", len(doc.Categories))
			fmt.Fprintf(rt.out, "Cache:        %s\n", rt.cache.Path())
			return nil
		},
	}
}

func newLoginCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "login <password>",
		Short:       "Store the sync password and pull the dashboard",
		Args:        cobra.ExactArgs(1),
		Annotations: noPull,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.flags.offline {
				return rt.requireLogin()
			}
			if err := rt.engine.Login(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintf(rt.out, "✅ logged in to %s (version %d)\n",
				rt.cfg.ServerURL, rt.engine.Session().CurrentVersion())
			return nil
		},
	}
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Forget the sync password, keeping the local dashboard",
		Args:        cobra.NoArgs,
		Annotations: noPull,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.engine.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "👋 logged out")
			return nil
		},
	}
}

func newPullCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "pull",
		Short:       "Fetch the dashboard from the sync server",
		Args:        cobra.NoArgs,
		Annotations: noPull,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			if err := rt.engine.Pull(cmd.Context()); err != nil {
				return fmt.Errorf("pull: %w", err)
			}
			fmt.Fprintf(rt.out, "✅ up to date at version %d\n", rt.engine.Session().CurrentVersion())
			return nil
		},
	}
}

func newPushCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "push",
		Short:       "Push the local dashboard now",
		Args:        cobra.NoArgs,
		Annotations: noPull,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			if err := rt.engine.Sync(cmd.Context()); err != nil {
				return fmt.Errorf("push: %w", err)
			}
			fmt.Fprintf(rt.out, "✅ pushed, server is at version %d\n", rt.engine.Session().CurrentVersion())
			return nil
		},
	}
}

func newResolveCmd(rt *runtime) *cobra.Command {
	var keep string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Settle a version conflict",
		Long: `Settle a version conflict with the sync server.

--keep local   overwrite the server with the local dashboard
--keep remote  replace the local dashboard with the server copy`,
		Args:        cobra.NoArgs,
		Annotations: noPull,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res syncclient.Resolution
			switch keep {
			case "local":
				res = syncclient.KeepLocal
			case "remote":
				res = syncclient.KeepRemote
			default:
				return fmt.Errorf("--keep must be local or remote, got %q", keep)
			}
			if err := rt.requireLogin(); err != nil {
				return err
			}
			if err := rt.engine.Resolve(cmd.Context(), res); err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			fmt.Fprintf(rt.out, "✅ kept the %s dashboard, server is at version %d\n",
				keep, rt.engine.Session().CurrentVersion())
			return nil
		},
	}
	cmd.Flags().StringVar(&keep, "keep", "", "side to keep: local or remote")
	_ = cmd.MarkFlagRequired("keep")
	return cmd
}
