package httpapi

import (
	"crypto/subtle"
	"net/http"

	"pbx-api/internal/config"
)

// APIKeyAuth checks X-API-Key against the configured keys. With no keys
// configured the API is open and the middleware passes everything through.
func APIKeyAuth(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(cfg.APIKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeError(w, http.StatusUnauthorized, "api key required")
				return
			}
			ok := false
			for _, k := range cfg.APIKeys {
				if subtle.ConstantTimeCompare([]byte(k.Key), []byte(key)) == 1 {
					ok = true
					break
				}
			}
			if !ok {
				writeError(w, http.StatusForbidden, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
