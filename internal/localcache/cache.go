// Package localcache persists the client side state (document, device id,
// sync metadata and config blobs) in a single SQLite key-value table.
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/utils"
)

// Storage keys.
const (
	KeyDocument     = "cloudnav_data_cache_v2"
	KeyDeviceID     = "cloudnav_device_id"
	KeyLastSync     = "cloudnav_last_sync"
	KeySyncMeta     = "cloudnav_sync_meta"
	KeyAuthToken    = "cloudnav_auth_token"
	KeyWebDAVConfig = "cloudnav_webdav_config"
	KeyAIConfig     = "cloudnav_ai_config"
	KeySearchConfig = "cloudnav_search_config"
	KeySiteSettings = "cloudnav_site_settings"
	KeyUnsynced     = "cloudnav_unsynced_changes"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Cache wraps the SQLite connection.
type Cache struct {
	db     *sql.DB
	path   string
	logger logger.Logger
	now    func() time.Time
}

// Open opens (or creates) the cache file, its parent directory and schema.
func Open(path string, log logger.Logger) (*Cache, error) {
	if log == nil {
		log = logger.Nop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	// one writer, the CLI and the debouncer share it
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initialising cache: %w", err)
		}
	}

	return &Cache{db: db, path: path, logger: log, now: time.Now}, nil
}

// Close closes the database connection
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the file backing the cache.
func (c *Cache) Path() string { return c.path }

// Get returns the raw value of key. ok is false when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores the raw value of key, replacing any previous one.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, c.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys in lexical order.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer utils.Close(rows)

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// load decodes the JSON stored under key. A value that does not decode is
// reported as missing.
func load[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		c.logger.Warn("ignoring unreadable cache entry",
			logger.String("key", key),
			logger.Error(err))
		var zero T
		return zero, false, nil
	}
	return out, true, nil
}

func (c *Cache) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.Set(ctx, key, string(raw))
}

// LoadDocument returns the cached document.
func (c *Cache) LoadDocument(ctx context.Context) (domain.Document, bool, error) {
	return load[domain.Document](ctx, c, KeyDocument)
}

// SaveDocument replaces the cached document.
func (c *Cache) SaveDocument(ctx context.Context, doc domain.Document) error {
	return c.save(ctx, KeyDocument, doc)
}

// LoadSyncMeta returns the last known remote meta.
func (c *Cache) LoadSyncMeta(ctx context.Context) (domain.Meta, bool, error) {
	return load[domain.Meta](ctx, c, KeySyncMeta)
}

func (c *Cache) SaveSyncMeta(ctx context.Context, meta domain.Meta) error {
	return c.save(ctx, KeySyncMeta, meta)
}

// LastSync returns the time of the last successful exchange with the server.
func (c *Cache) LastSync(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := c.Get(ctx, KeyLastSync)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.logger.Warn("ignoring unreadable cache entry",
			logger.String("key", KeyLastSync),
			logger.Error(err))
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (c *Cache) SetLastSync(ctx context.Context, t time.Time) error {
	return c.Set(ctx, KeyLastSync, strconv.FormatInt(t.UnixMilli(), 10))
}

// AuthToken returns the stored sync password.
func (c *Cache) AuthToken(ctx context.Context) (string, bool, error) {
	return c.Get(ctx, KeyAuthToken)
}

func (c *Cache) SetAuthToken(ctx context.Context, token string) error {
	return c.Set(ctx, KeyAuthToken, token)
}

func (c *Cache) ClearAuthToken(ctx context.Context) error {
	return c.Delete(ctx, KeyAuthToken)
}

// DeviceID returns the persisted device id.
func (c *Cache) DeviceID(ctx context.Context) (string, bool, error) {
	return c.Get(ctx, KeyDeviceID)
}

func (c *Cache) SetDeviceID(ctx context.Context, id string) error {
	return c.Set(ctx, KeyDeviceID, id)
}

// Unsynced reports whether local edits were made since the last exchange
// with the server.
func (c *Cache) Unsynced(ctx context.Context) (bool, error) {
	_, ok, err := c.Get(ctx, KeyUnsynced)
	return ok, err
}

func (c *Cache) SetUnsynced(ctx context.Context, unsynced bool) error {
	if !unsynced {
		return c.Delete(ctx, KeyUnsynced)
	}
	return c.Set(ctx, KeyUnsynced, strconv.FormatInt(c.now().UnixMilli(), 10))
}
