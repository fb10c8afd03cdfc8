package middleware

import "net/http"

// Single lets one request through at a time. Requests arriving while another
// is in flight get 409 Conflict instead of waiting.
func Single() func(http.Handler) http.Handler {
	busy := make(chan struct{}, 1)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case busy <- struct{}{}:
			default:
				http.Error(w, "a run is already in progress", http.StatusConflict)
				return
			}
			defer func() { <-busy }()
			next.ServeHTTP(w, r)
		})
	}
}
