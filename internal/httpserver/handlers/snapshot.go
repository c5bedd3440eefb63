package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
)

// Snapshot triggers a server-side backup of the current document.
func Snapshot(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SnapshotTrigger == nil {
			writeError(w, http.StatusServiceUnavailable, "automatic backups are disabled")
			return
		}

		select {
		case d.SnapshotTrigger <- struct{}{}:
			d.Logger.Info("manual snapshot triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Snapshot triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("snapshot already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Snapshot already in progress, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
