package httpapi

import "net/http"

// handlePowIssue implements GET /api/pow.
func (s *Server) handlePowIssue(w http.ResponseWriter, r *http.Request) {
	if !s.Pow.Enabled() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	challenge, difficulty, expiresAt, err := s.Pow.Issue(s.Now())
	if err != nil {
		writeError(w, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, powIssueResponse{
		Challenge:  challenge,
		Difficulty: difficulty,
		ExpiresAt:  expiresAt,
	})
}
