package mw

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/cloudnav/internal/logger"
)

// PasswordHeader carries the shared sync password.
const PasswordHeader = "X-Sync-Password"

// RequirePassword rejects requests whose X-Sync-Password does not match the
// bcrypt hash. A nil hash disables the check (passthrough).
func RequirePassword(hash []byte, log logger.Logger) func(http.Handler) http.Handler {
	if len(hash) == 0 {
		return passthrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			given := r.Header.Get(PasswordHeader)
			if given == "" || bcrypt.CompareHashAndPassword(hash, []byte(given)) != nil {
				log.Debug("sync password rejected",
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path))
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
