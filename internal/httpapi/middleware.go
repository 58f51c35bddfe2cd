package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/LonleySailor/zkpaste/internal/ratelimit"
)

// statusRecorder captures the status code a handler wrote, grounded
// on the response-writer wrapper pattern gorilla/mux-based servers
// commonly use for logging middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs method, path, status, elapsed time, and a
// hash of the client identity — never the raw address, since paste
// content and caller identity should never correlate in a log line.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		identity := ratelimit.ClientIdentity(r)
		h := sha256.Sum256([]byte(identity))
		log.Printf("%s %s %d %s identity=%s", r.Method, r.URL.Path, rec.status, time.Since(start), hex.EncodeToString(h[:8]))
	})
}

// RecoveryMiddleware converts a panic in any downstream handler into
// a 500 internal error instead of killing the connection.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("httpapi: recovered panic: %v", err)
				writeError(w, errInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware rejects requests with 429 once identity's
// bucket is empty.
func RateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ratelimit.ClientIdentity(r)) {
				writeError(w, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
