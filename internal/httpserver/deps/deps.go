package deps

import (
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time    // for testing, defaults to time.Now
	AllowedHosts     []string            // Host headers allowed to reach /api/sync (empty = any)
	AllowedCIDRS     []string            // IPs allowed to access the ops endpoints
	TrustProxy       bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Store            store.DocumentStore // shared document and snapshots
	SyncPasswordHash []byte              // bcrypt hash checked against X-Sync-Password (nil = open)
	BackupTTL        time.Duration       // lifetime of snapshots created through the API
	MaxBodyBytes     int64               // limit on POST bodies
	RateLimitBurst   int                 // sync requests burst per client IP (0 = unlimited)
	RateLimitPerMin  int                 // sync requests refill per client IP per minute
	SnapshotTrigger  chan struct{}       // Channel to trigger a manual server-side snapshot
}
