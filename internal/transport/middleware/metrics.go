package middleware

import (
	"net/http"
	"time"
)

type requestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Metrics returns middleware that records request count and latency per
// matched route. It must sit directly in front of the ServeMux so the
// pattern set by the mux is visible after the call.
func Metrics(m requestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, sw.status, time.Since(start))
		})
	}
}
