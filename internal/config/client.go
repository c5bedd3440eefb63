package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// ClientConfig drives the cloudnav CLI.
type ClientConfig struct {
	ServerURL    string        // base URL of the sync service (ex: "https://nav.example.com")
	SyncPassword string        // initial token when none is stored locally (optional)
	CachePath    string        // sqlite file backing the local cache
	SyncDebounce time.Duration // quiet period before a push (default: 3s)
	HTTPTimeout  time.Duration // per-request timeout against the sync service
	LogLevel     string        // "debug" | "info" | "warn" | "error"
}

// DefaultCacheFile is the cache location relative to $XDG_DATA_HOME.
const DefaultCacheFile = "cloudnav/cache.db"

// LoadClient reads the client settings from the environment. The cache path
// defaults to the XDG data directory, created on demand.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		ServerURL:    strings.TrimRight(getenv("CLOUDNAV_SERVER_URL", "http://localhost:8080"), "/"),
		SyncPassword: getenv("CLOUDNAV_SYNC_PASSWORD", ""),
		CachePath:    getenv("CLOUDNAV_CACHE_PATH", ""),
		SyncDebounce: mustDuration("CLOUDNAV_SYNC_DEBOUNCE", 3*time.Second),
		HTTPTimeout:  mustDuration("CLOUDNAV_HTTP_TIMEOUT", 10*time.Second),
		LogLevel:     getenv("CLOUDNAV_LOG_LEVEL", "warn"),
	}

	if cfg.CachePath == "" {
		path, err := xdg.DataFile(DefaultCacheFile)
		if err != nil {
			return nil, fmt.Errorf("resolve cache path: %w", err)
		}
		cfg.CachePath = path
	}

	return cfg, nil
}

// Redacted returns a copy safe to print.
func (c ClientConfig) Redacted() ClientConfig {
	if c.SyncPassword != "" {
		c.SyncPassword = "***REDACTED***"
	}
	return c
}
