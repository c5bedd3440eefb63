package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Version    *int64 `json:"version,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	Links      *int   `json:"links,omitempty"`
	Categories *int   `json:"categories,omitempty"`
	Count      *int   `json:"count,omitempty"`
	LastBackup string `json:"last_backup,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"store":    checkStore(ctx, d),
			"document": documentStatus(ctx, d),
			"backups":  backupStatus(ctx, d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		})
	}
}

func determineSyncMode(components map[string]componentStatus) string {
	if s, ok := components["store"]; ok && !s.OK {
		return "offline" // clients keep working from their local cache
	}
	if b, ok := components["backups"]; ok && !b.OK {
		return "degraded"
	}
	return "online"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "store not initialized"}
	}
	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: d.Store.Mode(), Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: d.Store.Mode()}
}

func documentStatus(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "store not initialized"}
	}
	doc, err := d.Store.GetDocument(ctx)
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	if doc == nil {
		return componentStatus{OK: true, Mode: "empty"}
	}
	links, categories := len(doc.Links), len(doc.Categories)
	version := doc.Meta.Version
	return componentStatus{
		OK:         true,
		Version:    &version,
		UpdatedAt:  time.UnixMilli(doc.Meta.UpdatedAt).UTC().Format(time.RFC3339),
		DeviceID:   doc.Meta.DeviceID,
		Links:      &links,
		Categories: &categories,
	}
}

func backupStatus(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "store not initialized"}
	}
	list, err := d.Store.ListBackups(ctx)
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	count := len(list)
	status := componentStatus{OK: true, Count: &count, LastBackup: "never"}
	if count > 0 {
		status.LastBackup = list[0].Timestamp
	}
	return status
}
