package httpapi

import (
	"database/sql"
	"net/http"
	"time"
)

// storeHealther is implemented by storage.SQLiteStore; checked via
// interface so handlers don't import the concrete type.
type storeHealther interface {
	Health() error
}

// storeStater is implemented by storage.SQLiteStore; checked via
// interface so memstore.Store (no connection pool) can opt out.
type storeStater interface {
	Stats() sql.DBStats
}

// handleHealth implements GET /api/health, going through the Store
// interface so any backend can opt in to a liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if hc, ok := s.Store.(storeHealther); ok {
		if err := hc.Health(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleDetailedHealth implements GET /api/health/detailed: DB ping,
// open connection count, and PoW/rate-limiter map sizes, for
// operators rather than load balancers.
func (s *Server) handleDetailedHealth(w http.ResponseWriter, r *http.Request) {
	resp := detailedHealthResponse{
		Status:        "ok",
		DBOk:          true,
		PowChallenges: s.Pow.Size(),
		UptimeSeconds: int64(time.Since(s.StartedAt).Seconds()),
	}
	if s.Limiter != nil {
		resp.RateLimiterBuckets = s.Limiter.Size()
	}

	status := http.StatusOK
	if hc, ok := s.Store.(storeHealther); ok {
		if err := hc.Health(); err != nil {
			resp.DBOk = false
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if st, ok := s.Store.(storeStater); ok {
		resp.OpenConnections = st.Stats().OpenConnections
	}

	writeJSON(w, status, resp)
}
