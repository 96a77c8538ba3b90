package httpadapter

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type trafficControl struct {
	onReject func(reason string)
}

func (tc trafficControl) reject(reason string) {
	if tc.onReject != nil {
		tc.onReject(reason)
	}
}

// rateLimit applies one token bucket to every request behind it. A
// non-positive rps disables it.
func (tc trafficControl) rateLimit(next http.Handler, rps float64, burst int) http.Handler {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/rps))))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			tc.reject("rate_limit")
			w.Header().Set("Retry-After", retryAfter)
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// backpressure returns a middleware that admits at most limit concurrent
// requests across every handler it wraps, waiting up to wait for a slot. A
// non-positive limit disables it.
func (tc trafficControl) backpressure(limit int, wait time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	slots := make(chan struct{}, limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := time.NewTimer(wait)
			defer timer.Stop()

			select {
			case slots <- struct{}{}:
			case <-timer.C:
				tc.reject("backpressure")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Server is busy processing other recordings, try again later"})
				return
			case <-r.Context().Done():
				return
			}
			defer func() { <-slots }()

			next.ServeHTTP(w, r)
		})
	}
}
