package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
)

// AdminKeyMiddleware guards the admin command surface with a shared key.
// Staff identity and sessions live in the back-office system, not here; this
// is only the infrastructure gate in front of mutating admin calls.
func AdminKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminKey := os.Getenv("ADMIN_API_KEY")
		if adminKey == "" {
			log.Println("ADMIN_API_KEY not set, rejecting admin request")
			adminRejections.WithLabelValues("key_unset").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		provided := r.Header.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
			adminRejections.WithLabelValues("bad_key").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
