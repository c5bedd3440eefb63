package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/mw"
)

func init() { Register(registerSync) }

// registerSync mounts the document API behind host, rate and password checks.
func registerSync(r chi.Router, d deps.Deps) {
	chain := []func(http.Handler) http.Handler{
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	}
	if d.RateLimitBurst > 0 {
		chain = append(chain, mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateLimitBurst,
			RefillPerIPPerMin: d.RateLimitPerMin,
			MaxEntries:        10_000,
			TrustProxy:        d.TrustProxy,
		}))
	}
	chain = append(chain, mw.RequirePassword(d.SyncPasswordHash, d.Logger))

	r.Use(chain...)

	sync := handlers.Sync(d)
	r.Handle("/api/sync", sync)
	r.Get("/api/sync/backups", handlers.WithAction(handlers.ActionBackups, sync))
	r.Get("/api/sync/backup", handlers.WithAction(handlers.ActionBackup, sync))
	r.Post("/api/sync/backup", handlers.WithAction(handlers.ActionBackup, sync))
}
