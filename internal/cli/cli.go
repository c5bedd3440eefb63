// Package cli is the cloudnav command line client. Every command opens the
// local cache, reconciles with the sync server when logged in, runs one
// operation and flushes the resulting push before exiting.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cloudnav/internal/config"
	"github.com/MrSnakeDoc/cloudnav/internal/device"
	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/localcache"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/syncclient"
	"github.com/MrSnakeDoc/cloudnav/internal/version"
)

// Command annotations.
const (
	// annotationNoPull skips the automatic pull before the command runs.
	annotationNoPull = "cloudnav/no-pull"
	// annotationNoRuntime runs the command without opening the cache.
	annotationNoRuntime = "cloudnav/no-runtime"
)

type rootFlags struct {
	server  string
	cache   string
	offline bool
	verbose bool
}

// runtime is what a command works against once the root pre-run opened it.
type runtime struct {
	flags  rootFlags
	out    io.Writer
	errOut io.Writer

	cfg    *config.ClientConfig
	log    logger.Logger
	cache  *localcache.Cache
	engine *syncclient.Engine
}

// Execute runs the command line in args and releases everything it opened.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	rt := &runtime{out: out, errOut: errOut}
	root := newRootCmd(rt)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, rt.close())
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "cloudnav",
		Short: "Bookmark dashboard synchronized across devices",
		Long: `Bookmark dashboard synchronized across devices

Links and categories live in a local cache and are pushed to the sync
server after every change. Concurrent edits from another device are
detected and reported as conflicts; resolve them with 'cloudnav resolve'.

Configuration comes from CLOUDNAV_* environment variables and the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoRuntime] != "" {
				return nil
			}
			return rt.open(cmd.Context(), cmd.Annotations[annotationNoPull] == "")
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rt.flags.server, "server", "", "sync server base URL (overrides CLOUDNAV_SERVER_URL)")
	pf.StringVar(&rt.flags.cache, "cache", "", "local cache file (overrides CLOUDNAV_CACHE_PATH)")
	pf.BoolVar(&rt.flags.offline, "offline", false, "work from the local cache without contacting the server")
	pf.BoolVarP(&rt.flags.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newStatusCmd(rt),
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newPullCmd(rt),
		newPushCmd(rt),
		newResolveCmd(rt),
		newLinksCmd(rt),
		newJumpCmd(rt),
		newAddCmd(rt),
		newEditCmd(rt),
		newRemoveCmd(rt),
		newMoveCmd(rt),
		newMovePinnedCmd(rt),
		newPinCmd(rt),
		newCategoriesCmd(rt),
		newCategoryCmd(rt),
		newBackupCmd(rt),
		newBackupsCmd(rt),
		newRestoreCmd(rt),
		newImportCmd(rt),
		newConfigCmd(rt),
		newVersionCmd(rt),
	)
	return root
}

func (rt *runtime) open(ctx context.Context, pull bool) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if rt.flags.server != "" {
		cfg.ServerURL = strings.TrimRight(rt.flags.server, "/")
	}
	if rt.flags.cache != "" {
		cfg.CachePath = rt.flags.cache
	}
	if rt.flags.verbose {
		cfg.LogLevel = "debug"
	}
	rt.cfg = cfg
	rt.log = logger.NewWriter(rt.errOut, cfg.LogLevel, true)

	cache, err := localcache.Open(cfg.CachePath, rt.log)
	if err != nil {
		return err
	}
	rt.cache = cache

	session, err := syncclient.NewSession(ctx, cache, device.NewProvider(cache), cfg.SyncPassword)
	if err != nil {
		return err
	}
	client := syncclient.NewClient(cfg.ServerURL, cfg.HTTPTimeout, session.AuthToken)
	rt.engine = syncclient.NewEngine(cache, client, session, syncclient.Options{
		Debounce:   cfg.SyncDebounce,
		Logger:     rt.log,
		NoAutoSync: rt.flags.offline,
		OnConflict: func(_, remote domain.Document) {
			fmt.Fprintf(rt.errOut, "⚠️  conflict: the server holds version %d from %s\n",
				remote.Meta.Version, device.Label(remote.Meta.DeviceID))
			fmt.Fprintln(rt.errOut, "   run 'cloudnav resolve --keep local' or 'cloudnav resolve --keep remote'")
		},
		OnAuthRequired: func() {
			fmt.Fprintln(rt.errOut, "🔒 the sync password was rejected, run 'cloudnav login'")
		},
	})

	if err := rt.engine.LoadLocal(ctx); err != nil {
		return err
	}
	if !pull || rt.flags.offline || !session.Authenticated() {
		return nil
	}
	if err := rt.engine.Pull(ctx); err != nil {
		rt.warnRemote("pull", err)
	}
	return nil
}

// close flushes a pending push and releases the cache. A failed final push
// only warns: the change is already saved locally.
func (rt *runtime) close() error {
	var errs []error
	if rt.engine != nil {
		if err := rt.engine.Close(); err != nil {
			rt.warnRemote("push", err)
		}
	}
	if rt.cache != nil {
		errs = append(errs, rt.cache.Close())
	}
	if rt.log != nil {
		// stderr cannot be synced on most platforms
		_ = rt.log.Sync()
	}
	return errors.Join(errs...)
}

// warnRemote reports a failed exchange whose callback did not already
// explain it.
func (rt *runtime) warnRemote(op string, err error) {
	switch {
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, syncclient.ErrUnauthorized):
	default:
		fmt.Fprintf(rt.errOut, "⚠️  %s failed, changes are kept locally: %v\n", op, err)
	}
}

// requireLogin fails commands that only make sense against the server.
func (rt *runtime) requireLogin() error {
	if rt.flags.offline {
		return errors.New("this command needs the sync server, drop --offline")
	}
	if !rt.engine.Session().Authenticated() {
		return errors.New("not logged in, run 'cloudnav login <password>' first")
	}
	return nil
}

func newVersionCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoRuntime: "true"},
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(rt.out, "cloudnav "+version.String())
		},
	}
}
