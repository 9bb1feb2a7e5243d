package auth

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// Middleware returns an HTTP middleware that requires the configured bearer
// token. Used to guard the admin endpoints.
func Middleware(token string, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := VerifyBearerToken(r, token); err != nil {
				logger.WithFields(logrus.Fields{
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
					"error":       err.Error(),
				}).Warn("Admin authentication failed")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"authentication failed"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
