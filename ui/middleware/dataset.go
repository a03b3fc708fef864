package middleware

import (
	"log"
	"net/http"

	"surveylens/internal/session"
)

// RequireDataset sends visitors back to the upload page while no dataset is loaded
func RequireDataset(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(store.List()) == 0 {
				log.Printf("[RequireDataset] No dataset loaded, redirecting %s", r.URL.Path)
				http.Redirect(w, r, "/?missing=1", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
