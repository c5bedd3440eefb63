package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/mw"
)

func init() { Register(registerOps) }

// registerOps mounts the probes and the manual snapshot trigger, all
// limited to AllowedCIDRS.
func registerOps(r chi.Router, d deps.Deps) {
	r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/snapshot", handlers.Snapshot(d))
}
