package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cloudnav/internal/device"
)

func newBackupCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the dashboard on the sync server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			key, err := rt.engine.Backup(cmd.Context())
			if err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			fmt.Fprintf(rt.out, "💾 backup created: %s\n", key)
			return nil
		},
	}
}

func newBackupsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "backups",
		Short:       "List server snapshots, newest first",
		Args:        cobra.NoArgs,
		Annotations: noPull,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			list, err := rt.engine.ListBackups(cmd.Context())
			if err != nil {
				return fmt.Errorf("list backups: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(rt.out, "No backups.")
				return nil
			}

			w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTIMESTAMP\tEXPIRES\tVERSION\tDEVICE")
			for _, b := range list {
				expires := "never"
				if b.Expiration != nil {
					expires = time.Unix(*b.Expiration, 0).Local().Format(time.DateTime)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", b.Key, b.Timestamp, expires, b.Version, device.Label(b.DeviceID))
			}
			return w.Flush()
		},
	}
}

func newRestoreCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the dashboard with a server snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			if err := rt.engine.Restore(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			fmt.Fprintf(rt.out, "♻️  restored %s, server is at version %d\n",
				args[0], rt.engine.Session().CurrentVersion())
			return nil
		},
	}
}
