package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/LonleySailor/zkpaste/internal/paste"
	"github.com/LonleySailor/zkpaste/internal/pow"
	"github.com/LonleySailor/zkpaste/pkg/idgen"
	"github.com/LonleySailor/zkpaste/pkg/validation"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds request body reads independent of the
// paste-size limit, guarding against unbounded allocation from a
// malicious Content-Length-less stream.
const maxBodyBytes = 8 << 20

// handleCreatePaste implements POST /api/pastes.
func (s *Server) handleCreatePaste(w http.ResponseWriter, r *http.Request) {
	var req createPasteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, errMalformedBody)
		return
	}

	now := s.Now()

	if s.Config.Pow.Enabled {
		if req.Pow == nil || req.Pow.Challenge == "" || req.Pow.Nonce == "" {
			writeError(w, errPowRequired)
			return
		}
		switch s.Pow.Verify(req.Pow.Challenge, req.Pow.Nonce, now) {
		case pow.Invalid:
			writeError(w, errPowInvalid)
			return
		case pow.Expired:
			writeError(w, errPowExpired)
			return
		case pow.AlreadyUsed:
			writeError(w, errPowUsed)
			return
		case pow.Insufficient:
			writeError(w, errPowInsufficient)
			return
		}
	}

	ctBytes, verr := s.Validator.DecodeBase64Field("ct", req.Ct, true)
	if verr != nil {
		writeError(w, validationAPIError(verr))
		return
	}
	if _, verr := s.Validator.DecodeBase64Field("iv", req.Iv, true); verr != nil {
		writeError(w, validationAPIError(verr))
		return
	}

	if verr := s.Validator.ValidatePasteSize(len(ctBytes)); verr != nil {
		writeError(w, validationAPIError(verr))
		return
	}
	if verr := s.Validator.ValidateExpireTs(req.Meta.ExpireTs, now); verr != nil {
		writeError(w, validationAPIError(verr))
		return
	}
	if verr := s.Validator.ValidateViewsAllowed(req.Meta.ViewsAllowed); verr != nil {
		writeError(w, validationAPIError(verr))
		return
	}

	var deleteAuth []byte
	if req.DeleteAuth != "" {
		decoded, verr := s.Validator.DecodeBase64Field("deleteAuth", req.DeleteAuth, false)
		if verr != nil {
			writeError(w, validationAPIError(verr))
			return
		}
		deleteAuth = decoded
	}

	mime := req.Meta.Mime
	if mime == "" {
		mime = "text/plain"
	}

	out, err := s.Pastes.Create(r.Context(), paste.CreateInput{
		Now:               now,
		Ct:                req.Ct,
		Iv:                req.Iv,
		Mime:              mime,
		ExpireTs:          req.Meta.ExpireTs,
		SingleView:        req.Meta.SingleView,
		ViewsAllowed:      req.Meta.ViewsAllowed,
		AllowChat:         req.Meta.AllowChat,
		DeleteAuth:        deleteAuth,
		DecodedCtLen:      len(ctBytes),
		MaxPasteSizeBytes: s.Config.Paste.MaxSizeBytes,
		MaxExpireSeconds:  s.Config.Paste.MaxExpirationSeconds,
	})
	if err != nil {
		writeError(w, pasteAPIError(err))
		return
	}

	writeJSON(w, http.StatusOK, createPasteResponse{ID: out.ID, DeleteToken: out.DeleteToken})
}

// handleGetPaste implements GET /api/pastes/{id}.
func (s *Server) handleGetPaste(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, err := s.Pastes.Read(r.Context(), id, s.Now())
	if err != nil {
		writeError(w, pasteAPIError(err))
		return
	}

	writeJSON(w, http.StatusOK, getPasteResponse{
		Ct: view.Ct,
		Iv: view.Iv,
		Meta: pasteMetaResponse{
			ExpireTs:     view.ExpireTs,
			Mime:         view.Mime,
			SingleView:   view.SingleView,
			ViewsAllowed: view.ViewsAllowed,
			AllowChat:    view.AllowChat,
		},
	})
}

// handleDeleteByToken implements DELETE /api/pastes/{id}?token=T.
func (s *Server) handleDeleteByToken(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, errInvalidToken)
		return
	}
	tokenBytes, err := idgen.DecodeURL(token)
	if err != nil {
		writeError(w, errInvalidToken)
		return
	}

	if err := s.Pastes.DeleteByToken(r.Context(), id, tokenBytes, s.Now()); err != nil {
		writeError(w, pasteAPIError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteByAuth implements POST /api/pastes/{id}/delete.
func (s *Server) handleDeleteByAuth(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req deleteByAuthRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, errMalformedBody)
		return
	}
	auth, verr := s.Validator.DecodeBase64Field("deleteAuth", req.DeleteAuth, true)
	if verr != nil {
		writeError(w, validationAPIError(verr))
		return
	}

	if err := s.Pastes.DeleteByAuth(r.Context(), id, auth, s.Now()); err != nil {
		writeError(w, pasteAPIError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validationAPIError(verr *validation.Error) *APIError {
	return newAPIError(string(verr.Kind), http.StatusBadRequest)
}

func pasteAPIError(err error) *APIError {
	var pe *paste.Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case paste.KindTooLarge:
			return errTooLarge
		case paste.KindBadExpiration:
			return errBadExpiration
		case paste.KindNotFound:
			return errNotFound
		case paste.KindGone:
			return errGone
		case paste.KindInvalidToken:
			return errInvalidToken
		case paste.KindInvalidAuth:
			return errInvalidAuth
		}
	}
	return errInternal
}
