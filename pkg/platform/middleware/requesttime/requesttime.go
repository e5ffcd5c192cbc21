// Package requesttime pins one "now" per HTTP request so every timestamp a
// reconciliation produces (event times, log fields) agrees.
package requesttime

import (
	"net/http"
	"time"

	"id-recon/pkg/requestcontext"
)

// Middleware stores the wall-clock time at request start in the context.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware reading the time from now.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
