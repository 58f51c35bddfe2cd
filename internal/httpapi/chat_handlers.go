package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/LonleySailor/zkpaste/internal/chat"
	"github.com/gorilla/mux"
)

// handleAppendChat implements POST /api/pastes/{id}/messages.
func (s *Server) handleAppendChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req appendChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, errMalformedBody)
		return
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
	if verr := s.Validator.ValidateChatMessageSize(len(ctBytes)); verr != nil {
		writeError(w, validationAPIError(verr))
		return
	}

	count, err := s.Chat.Append(r.Context(), id, req.Ct, req.Iv, s.Now())
	if err != nil {
		writeError(w, chatAPIError(err))
		return
	}

	writeJSON(w, http.StatusOK, appendChatResponse{Count: count})
}

// handleListChat implements GET /api/pastes/{id}/messages.
func (s *Server) handleListChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	msgs, err := s.Chat.List(r.Context(), id, s.Now())
	if err != nil {
		writeError(w, chatAPIError(err))
		return
	}

	resp := listChatResponse{Messages: make([]chatMessageResponse, len(msgs))}
	for i, m := range msgs {
		resp.Messages[i] = chatMessageResponse{Ct: m.Ct, Iv: m.Iv, CreatedTs: m.CreatedTs}
	}
	writeJSON(w, http.StatusOK, resp)
}

func chatAPIError(err error) *APIError {
	var ce *chat.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case chat.KindTooLarge:
			return errTooLarge
		case chat.KindNotFound:
			return errNotFound
		case chat.KindGone:
			return errGone
		case chat.KindChatDisable:
			return errChatDisabled
		}
	}
	return errInternal
}
