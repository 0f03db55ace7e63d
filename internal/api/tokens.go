package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// tokenRequest registers or removes a push notification token.
type tokenRequest struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

// handleRegisterToken stores a push token for a user. Re-registering an
// existing token moves it to the new user.
func (s *Server) handleRegisterToken(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil {
		writeNotFound(w, "push notifications not configured")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeBadRequest(w, "token is required")
		return
	}

	userID := req.UserID
	if userID == 0 {
		userID = s.actorID
	}

	if err := s.tokens.Save(r.Context(), userID, req.Token); err != nil {
		s.logger.Error("saving push token failed", "user_id", userID, "error", err)
		writeInternalError(w, "failed to register token")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": userID})
}

// handleDeleteToken removes a push token.
func (s *Server) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil {
		writeNotFound(w, "push notifications not configured")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeBadRequest(w, "token is required")
		return
	}

	if err := s.tokens.Delete(r.Context(), req.Token); err != nil {
		s.logger.Error("deleting push token failed", "error", err)
		writeInternalError(w, "failed to delete token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
