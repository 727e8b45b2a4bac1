package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Operator actions on conversations. Authentication sits in front of
// these routes at the reverse proxy.

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathConversationID(w, r)
	if !ok {
		return
	}
	var req struct {
		OperatorID string `json:"operator_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OperatorID == "" {
		http.Error(w, "operator_id required", http.StatusBadRequest)
		return
	}

	conv, err := s.dispatcher.Claim(r.Context(), convID, req.OperatorID)
	if err != nil {
		slog.Warn("claim failed", "conversation_id", convID, "error", err)
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathConversationID(w, r)
	if !ok {
		return
	}
	conv, err := s.dispatcher.Resolve(r.Context(), convID)
	if err != nil {
		slog.Warn("resolve failed", "conversation_id", convID, "error", err)
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathConversationID(w, r)
	if !ok {
		return
	}
	conv, err := s.dispatcher.Close(r.Context(), convID)
	if err != nil {
		slog.Warn("close failed", "conversation_id", convID, "error", err)
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleOperatorMessage(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathConversationID(w, r)
	if !ok {
		return
	}
	var req struct {
		OperatorID string `json:"operator_id"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OperatorID == "" || req.Text == "" {
		http.Error(w, "operator_id and text required", http.StatusBadRequest)
		return
	}

	msg, err := s.dispatcher.SendOperatorMessage(r.Context(), convID, req.OperatorID, req.Text)
	if err != nil {
		slog.Error("operator message failed", "conversation_id", convID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func pathConversationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
