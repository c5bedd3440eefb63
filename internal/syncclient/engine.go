package syncclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/localcache"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/ordering"
)

// Status is the sync indicator shown to the user.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusSaving       Status = "saving"
	StatusSaved        Status = "saved"
	StatusError        Status = "error"
	StatusOffline      Status = "offline"
	StatusConflict     Status = "conflict"
	StatusUnauthorized Status = "unauthorized"
)

// Resolution picks the side that wins a version conflict.
type Resolution int

const (
	KeepLocal Resolution = iota
	KeepRemote
)

// ErrNoRemoteDocument is returned when adopting a remote that is empty.
var ErrNoRemoteDocument = errors.New("the server holds no document")

// Remote is the server side of the exchange. *Client satisfies it.
type Remote interface {
	Fetch(ctx context.Context) (*domain.Document, error)
	Push(ctx context.Context, doc domain.Document, expected *int64) (*domain.Document, error)
	Backup(ctx context.Context, doc domain.Document) (string, error)
	ListBackups(ctx context.Context) ([]domain.BackupInfo, error)
	GetBackup(ctx context.Context, key string) (*domain.Document, error)
}

// Options tune an Engine. Zero values get defaults.
type Options struct {
	Debounce time.Duration
	Logger   logger.Logger
	Now      func() time.Time
	NewID    ordering.IDFunc
	// NoAutoSync disables the debounced push. Edits wait for Sync or Pull.
	NoAutoSync bool

	// The callbacks run while a server exchange is in flight and must not
	// call Sync, Pull or Resolve.
	OnConflict     func(local, remote domain.Document)
	OnAuthRequired func()
	OnStatus       func(Status)
}

// Report is a point-in-time view of the engine.
type Report struct {
	Status         Status
	Pending        bool
	Authenticated  bool
	DeviceID       string
	CurrentVersion int64
	LastSync       time.Time
	LastError      string
	Conflict       *domain.Meta
}

// Engine owns the local document and its synchronisation.
type Engine struct {
	cache     *localcache.Cache
	remote    Remote
	session   *Session
	log       logger.Logger
	opts      Options
	debouncer *Debouncer

	// mu guards the fields below. Never held across network calls.
	mu       sync.Mutex
	doc      domain.Document
	edits    uint64
	status   Status
	lastErr  error
	conflict *domain.Document

	// pushMu keeps a single exchange with the server in flight.
	pushMu sync.Mutex
}

func NewEngine(cache *localcache.Cache, remote Remote, session *Session, opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	e := &Engine{
		cache:   cache,
		remote:  remote,
		session: session,
		log:     opts.Logger,
		opts:    opts,
		doc:     domain.NewDocument(),
		status:  StatusIdle,
	}
	e.debouncer = NewDebouncer(opts.Debounce, e.flush)
	return e
}

// Session exposes the identity the engine syncs under.
func (e *Engine) Session() *Session { return e.session }

// Load restores the local document and reconciles it with the server. A
// server that cannot be reached leaves the local copy in place.
func (e *Engine) Load(ctx context.Context) error {
	if err := e.LoadLocal(ctx); err != nil {
		return err
	}
	if !e.session.Authenticated() {
		e.log.Debug("no sync password, working from the local cache")
		return nil
	}
	return e.Pull(ctx)
}

// LoadLocal restores the document from the local cache only.
func (e *Engine) LoadLocal(ctx context.Context) error {
	doc, ok, err := e.cache.LoadDocument(ctx)
	if err != nil {
		return err
	}
	if !ok {
		doc = domain.NewDocument()
	}
	if err := e.fillConfig(ctx, &doc); err != nil {
		return err
	}
	normalize(&doc)

	e.mu.Lock()
	e.doc = doc
	e.mu.Unlock()
	return e.cache.SaveDocument(ctx, doc)
}

// Pull fetches the remote document. Remote data is authoritative and
// replaces the local copy, unless local edits were made since the last sync:
// those are pushed when the remote has not moved, and reported as a conflict
// when it has. An empty remote gets the local document pushed.
func (e *Engine) Pull(ctx context.Context) error {
	if !e.session.Authenticated() {
		return ErrOffline
	}

	e.pushMu.Lock()
	defer e.pushMu.Unlock()

	remote, err := e.remote.Fetch(ctx)
	if err != nil {
		return e.remoteFailed(ctx, "fetch", err)
	}
	unsynced, err := e.cache.Unsynced(ctx)
	if err != nil {
		return err
	}
	base := e.session.CurrentVersion()

	switch {
	case remote == nil:
		e.log.Info("server holds no document, uploading the local copy")
	case !unsynced:
		e.debouncer.Cancel()
		return e.adopt(ctx, *remote)
	case remote.Meta.Version != base:
		return e.remoteFailed(ctx, "fetch", &domain.ConflictError{
			ExpectedVersion: base,
			CurrentVersion:  remote.Meta.Version,
			Remote:          remote,
		})
	default:
		e.log.Info("uploading local changes made since the last sync",
			logger.Int64("version", base))
	}
	e.debouncer.Cancel()
	return e.pushLocked(ctx, base)
}

// Apply runs mutate on a copy of the document, saves the result locally and
// schedules a push. The document is left untouched when mutate fails.
func (e *Engine) Apply(ctx context.Context, mutate func(doc *domain.Document) error) error {
	e.mu.Lock()
	next := e.doc.Clone()
	if err := mutate(&next); err != nil {
		e.mu.Unlock()
		return err
	}
	normalize(&next)
	e.doc = next
	e.edits++
	conflicted := e.conflict != nil
	e.mu.Unlock()

	if err := e.cache.SaveDocument(ctx, next); err != nil {
		return err
	}
	if err := e.cache.SetUnsynced(ctx, true); err != nil {
		return err
	}

	if e.session.Authenticated() && !conflicted && !e.opts.NoAutoSync {
		e.debouncer.Trigger()
	}
	return nil
}

// Sync pushes the local document now, based on the last seen remote version.
func (e *Engine) Sync(ctx context.Context) error {
	e.pushMu.Lock()
	defer e.pushMu.Unlock()

	if !e.session.Authenticated() {
		return ErrOffline
	}

	e.mu.Lock()
	if e.conflict != nil {
		remote := e.conflict
		e.mu.Unlock()
		return &domain.ConflictError{
			ExpectedVersion: e.session.CurrentVersion(),
			CurrentVersion:  remote.Meta.Version,
			Remote:          remote,
		}
	}
	e.mu.Unlock()

	return e.pushLocked(ctx, e.session.CurrentVersion())
}

// Resolve settles a conflict. Without a recorded conflict the remote is
// fetched first so the choice is still made against fresh data.
func (e *Engine) Resolve(ctx context.Context, res Resolution) error {
	if !e.session.Authenticated() {
		return ErrOffline
	}

	e.pushMu.Lock()
	defer e.pushMu.Unlock()

	e.mu.Lock()
	remote := e.conflict
	e.mu.Unlock()

	if remote == nil {
		fetched, err := e.remote.Fetch(ctx)
		if err != nil {
			return e.remoteFailed(ctx, "fetch", err)
		}
		remote = fetched
	}

	switch res {
	case KeepRemote:
		if remote == nil {
			return ErrNoRemoteDocument
		}
		e.log.Info("conflict resolved with the remote document",
			logger.Int64("version", remote.Meta.Version))
		e.debouncer.Cancel()
		return e.adopt(ctx, *remote)
	case KeepLocal:
		var base int64
		if remote != nil {
			base = remote.Meta.Version
		}
		e.mu.Lock()
		e.conflict = nil
		e.mu.Unlock()
		e.log.Info("conflict resolved with the local document",
			logger.Int64("remote_version", base))
		return e.pushLocked(ctx, base)
	default:
		return fmt.Errorf("unknown resolution %d", res)
	}
}

// Login checks token against the server, stores it and pulls. A rejected
// token leaves the previous session in place.
func (e *Engine) Login(ctx context.Context, token string) error {
	prev := e.session.AuthToken()
	e.session.useToken(token)
	if _, err := e.remote.Fetch(ctx); err != nil {
		e.session.useToken(prev)
		if errors.Is(err, ErrUnauthorized) {
			e.setStatus(StatusUnauthorized, err)
		}
		return err
	}
	if err := e.session.Login(ctx, token); err != nil {
		return err
	}
	e.log.Info("logged in to the sync server", logger.String("device_id", e.session.DeviceID()))
	return e.Pull(ctx)
}

// Logout drops the stored password and any pending push. The local
// document stays.
func (e *Engine) Logout(ctx context.Context) error {
	e.debouncer.Cancel()
	if err := e.session.Logout(ctx); err != nil {
		return err
	}
	e.setStatus(StatusIdle, nil)
	return nil
}

// Backup snapshots the local document on the server.
func (e *Engine) Backup(ctx context.Context) (string, error) {
	if !e.session.Authenticated() {
		return "", ErrOffline
	}
	key, err := e.remote.Backup(ctx, e.Document())
	if err != nil {
		return "", e.remoteFailed(ctx, "backup", err)
	}
	e.log.Info("backup created", logger.String("key", key))
	return key, nil
}

// ListBackups returns the server snapshots, newest first.
func (e *Engine) ListBackups(ctx context.Context) ([]domain.BackupInfo, error) {
	if !e.session.Authenticated() {
		return nil, ErrOffline
	}
	list, err := e.remote.ListBackups(ctx)
	if err != nil {
		return nil, e.remoteFailed(ctx, "list backups", err)
	}
	return list, nil
}

// Restore replaces the local content with a snapshot and pushes it on top
// of the current remote version.
func (e *Engine) Restore(ctx context.Context, key string) error {
	if !e.session.Authenticated() {
		return ErrOffline
	}
	snap, err := e.remote.GetBackup(ctx, key)
	if err != nil {
		return e.remoteFailed(ctx, "get backup", err)
	}

	err = e.Apply(ctx, func(doc *domain.Document) error {
		restored := snap.Clone()
		restored.Meta = doc.Meta
		*doc = restored
		return nil
	})
	if err != nil {
		return err
	}
	e.saveConfig(ctx, e.Document())
	e.debouncer.Cancel()
	return e.Sync(ctx)
}

// Document returns a copy of the local document.
func (e *Engine) Document() domain.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// Conflict returns the remote document of an unresolved conflict.
func (e *Engine) Conflict() (domain.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conflict == nil {
		return domain.Document{}, false
	}
	return e.conflict.Clone(), true
}

// Status reports the sync state for display.
func (e *Engine) Status() Report {
	e.mu.Lock()
	r := Report{Status: e.status}
	if e.lastErr != nil {
		r.LastError = e.lastErr.Error()
	}
	if e.conflict != nil {
		meta := e.conflict.Meta
		r.Conflict = &meta
	}
	e.mu.Unlock()

	r.Pending = e.debouncer.State() == PendingFlush
	r.Authenticated = e.session.Authenticated()
	r.DeviceID = e.session.DeviceID()
	r.CurrentVersion = e.session.CurrentVersion()
	if last, ok, err := e.cache.LastSync(context.Background()); err == nil && ok {
		r.LastSync = last
	}
	return r
}

// Close pushes a pending change and stops the debouncer. The error of that
// final push is returned.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.lastErr = nil
	e.mu.Unlock()

	flushed := e.debouncer.FlushNow()
	e.debouncer.Stop()
	if !flushed {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) flush() {
	// errors land in the status report
	_ = e.Sync(context.Background())
}

// pushLocked sends the local document with expected as the base version.
// Callers hold pushMu.
func (e *Engine) pushLocked(ctx context.Context, expected int64) error {
	e.mu.Lock()
	doc := e.doc.Clone()
	edits := e.edits
	e.mu.Unlock()
	doc.Meta.DeviceID = e.session.DeviceID()

	e.setStatus(StatusSaving, nil)
	e.log.Debug("pushing document",
		logger.Int64("expected_version", expected),
		logger.Int("links", len(doc.Links)))

	saved, err := e.remote.Push(ctx, doc, &expected)
	if err != nil {
		return e.remoteFailed(ctx, "push", err)
	}

	e.session.SetCurrentVersion(saved.Meta.Version)
	e.mu.Lock()
	e.doc.Meta = saved.Meta
	current := e.doc.Clone()
	clean := e.edits == edits
	e.mu.Unlock()

	if err := e.persistSynced(ctx, current, clean); err != nil {
		return err
	}
	e.setStatus(StatusSaved, nil)
	e.log.Info("document synced",
		logger.Int64("version", saved.Meta.Version),
		logger.String("device_id", saved.Meta.DeviceID))
	return nil
}

// adopt replaces the local document with remote. Callers hold pushMu.
func (e *Engine) adopt(ctx context.Context, remote domain.Document) error {
	doc := remote.Clone()
	if err := e.fillConfig(ctx, &doc); err != nil {
		return err
	}
	normalize(&doc)

	e.mu.Lock()
	e.doc = doc
	e.conflict = nil
	e.mu.Unlock()

	e.session.SetCurrentVersion(doc.Meta.Version)
	e.saveConfig(ctx, doc)
	if err := e.persistSynced(ctx, doc, true); err != nil {
		return err
	}
	e.setStatus(StatusSaved, nil)
	e.log.Info("adopted remote document",
		logger.Int64("version", doc.Meta.Version),
		logger.Int("links", len(doc.Links)))
	return nil
}

// persistSynced saves doc as the result of a server exchange. clean is false
// when edits arrived while the exchange was in flight.
func (e *Engine) persistSynced(ctx context.Context, doc domain.Document, clean bool) error {
	if err := e.cache.SaveDocument(ctx, doc); err != nil {
		return err
	}
	if err := e.cache.SaveSyncMeta(ctx, doc.Meta); err != nil {
		return err
	}
	if clean {
		if err := e.cache.SetUnsynced(ctx, false); err != nil {
			return err
		}
	}
	return e.cache.SetLastSync(ctx, e.opts.Now())
}

// remoteFailed records err in the status and runs the matching callback.
func (e *Engine) remoteFailed(ctx context.Context, op string, err error) error {
	var conflict *domain.ConflictError
	var transport *TransportError
	switch {
	case errors.As(err, &conflict):
		e.mu.Lock()
		e.conflict = conflict.Remote
		local := e.doc.Clone()
		e.mu.Unlock()
		e.debouncer.Cancel()
		e.setStatus(StatusConflict, err)
		e.log.Warn("version conflict, automatic sync suspended",
			logger.Int64("expected_version", conflict.ExpectedVersion),
			logger.Int64("remote_version", conflict.CurrentVersion))
		if e.opts.OnConflict != nil && conflict.Remote != nil {
			e.opts.OnConflict(local, conflict.Remote.Clone())
		}
	case errors.Is(err, ErrUnauthorized):
		if lerr := e.session.Logout(ctx); lerr != nil {
			e.log.Warn("failed to clear the stored password", logger.Error(lerr))
		}
		e.debouncer.Cancel()
		e.setStatus(StatusUnauthorized, err)
		e.log.Warn("sync password rejected, logged out")
		if e.opts.OnAuthRequired != nil {
			e.opts.OnAuthRequired()
		}
	case errors.As(err, &transport):
		status := StatusError
		if op == "fetch" {
			status = StatusOffline
		}
		e.setStatus(status, err)
		e.log.Warn("sync server unreachable", logger.String("op", op), logger.Error(err))
	default:
		e.setStatus(StatusError, err)
		e.log.Warn("sync failed", logger.String("op", op), logger.Error(err))
	}
	return err
}

func (e *Engine) setStatus(s Status, err error) {
	e.mu.Lock()
	changed := e.status != s
	e.status = s
	e.lastErr = err
	e.mu.Unlock()

	if changed && e.opts.OnStatus != nil {
		e.opts.OnStatus(s)
	}
}

// fillConfig completes missing config blobs from their own keys, falling
// back to the defaults of a new dashboard.
func (e *Engine) fillConfig(ctx context.Context, doc *domain.Document) error {
	if doc.SearchConfig == nil {
		cfg, ok, err := e.cache.LoadSearchConfig(ctx)
		if err != nil {
			return err
		}
		if !ok {
			cfg = domain.DefaultSearchConfig(e.opts.Now().UnixMilli())
		}
		doc.SearchConfig = &cfg
	}
	if doc.AIConfig == nil {
		cfg, ok, err := e.cache.LoadAIConfig(ctx)
		if err != nil {
			return err
		}
		if !ok {
			cfg = domain.DefaultAIConfig()
		}
		doc.AIConfig = &cfg
	}
	if doc.SiteSettings == nil {
		s, ok, err := e.cache.LoadSiteSettings(ctx)
		if err != nil {
			return err
		}
		if !ok {
			s = domain.DefaultSiteSettings()
		}
		doc.SiteSettings = &s
	}
	return nil
}

// saveConfig mirrors the document config blobs to their own keys.
func (e *Engine) saveConfig(ctx context.Context, doc domain.Document) {
	var errs []error
	if doc.SearchConfig != nil {
		errs = append(errs, e.cache.SaveSearchConfig(ctx, *doc.SearchConfig))
	}
	if doc.AIConfig != nil {
		errs = append(errs, e.cache.SaveAIConfig(ctx, *doc.AIConfig))
	}
	if doc.SiteSettings != nil {
		errs = append(errs, e.cache.SaveSiteSettings(ctx, *doc.SiteSettings))
	}
	if err := errors.Join(errs...); err != nil {
		e.log.Warn("failed to save config blobs", logger.Error(err))
	}
}

func normalize(doc *domain.Document) {
	ordering.EnsureFallback(doc)
	ordering.SortForDisplay(doc.Links)
}
