package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
)

// Registrar mounts one group of endpoints.
type Registrar func(r chi.Router, d deps.Deps)

var registry []Registrar

// Register is called from the init of each route file.
func Register(reg Registrar) {
	registry = append(registry, reg)
}

// RegisterAll mounts every registered group on r, each in its own chi
// group so middlewares stay local to it.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		r.Group(func(g chi.Router) { reg(g, d) })
	}
}
