package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout (ex: 10s)
	MaxBodyBytes    int64         // max accepted body on POST /api/sync

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreMode        string // "redis" | "memory"
	SyncPasswordHash []byte // bcrypt hash of the shared password, nil = open access

	BackupTTL          time.Duration // lifetime of a snapshot (default: 30 days)
	MaxBackups         int           // snapshots kept by the pruner (0 = TTL only)
	AutoBackupInterval time.Duration // server-side snapshot interval (0 = disabled)
	BackupGCInterval   time.Duration // pruner interval

	SeedServicesFile  string // Homepage services.yaml imported into an empty store (optional)
	SeedBookmarksFile string // Homepage bookmarks.yaml imported into an empty store (optional)

	RateLimitBurst  int // burst of sync requests per client IP
	RateLimitPerMin int // refill per client IP per minute

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("CLOUDNAV_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("CLOUDNAV_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("CLOUDNAV_REQUEST_TIMEOUT", 10*time.Second),
		MaxBodyBytes:    int64(getenvInt("CLOUDNAV_MAX_BODY_BYTES", 5<<20)),

		// Logging
		LogLevel:  getenv("CLOUDNAV_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CLOUDNAV_PRETTY_LOG", true),

		// Storage and sync
		StoreMode:          mustOneOf("CLOUDNAV_STORE", StoreRedis, StoreRedis, StoreMemory),
		SyncPasswordHash:   hashPassword(getenv("CLOUDNAV_SYNC_PASSWORD", "")),
		BackupTTL:          mustDuration("CLOUDNAV_BACKUP_TTL", 30*24*time.Hour),
		MaxBackups:         getenvInt("CLOUDNAV_MAX_BACKUPS", 50),
		AutoBackupInterval: mustDuration("CLOUDNAV_AUTO_BACKUP_INTERVAL", 24*time.Hour),
		BackupGCInterval:   mustDuration("CLOUDNAV_BACKUP_GC_INTERVAL", time.Hour),

		// Seeding
		SeedServicesFile:  getenv("CLOUDNAV_SEED_SERVICES_FILE", ""),
		SeedBookmarksFile: getenv("CLOUDNAV_SEED_BOOKMARKS_FILE", ""),

		// Rate limiting
		RateLimitBurst:  getenvInt("CLOUDNAV_RATE_LIMIT_BURST", 30),
		RateLimitPerMin: getenvInt("CLOUDNAV_RATE_LIMIT_PER_MIN", 120),

		// Redis settings
		RedisUser:             getenv("CLOUDNAV_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("CLOUDNAV_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("CLOUDNAV_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("CLOUDNAV_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("CLOUDNAV_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("CLOUDNAV_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("CLOUDNAV_TRUST_PROXY", false),
	}

	if cfg.StoreMode == StoreRedis {
		cfg.RedisAddr = requireEnv("CLOUDNAV_REDIS_ADDR")

		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: CLOUDNAV_REDIS_PASSWORD is required when CLOUDNAV_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		if cfg.SyncPasswordHash != nil {
			cfgCopy.SyncPasswordHash = []byte("***REDACTED***")
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// hashPassword turns the shared sync password into a bcrypt hash so the
// plaintext does not stay in memory. Empty means the API is open.
func hashPassword(plain string) []byte {
	if plain == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: cannot hash CLOUDNAV_SYNC_PASSWORD: %v", err))
	}
	return hash
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// mustOneOf returns the value of key when it is one of allowed, def when unset.
func mustOneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(getenv(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	panic(fmt.Sprintf("❌ FATAL: %s must be one of %v, got %q", key, allowed, v))
}
