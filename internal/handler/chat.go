// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/passtalk/passtalk/internal/chat"
	"github.com/passtalk/passtalk/internal/middleware"
	"github.com/passtalk/passtalk/internal/model"
	"github.com/passtalk/passtalk/pkg/logger"
)

// ChatHandler exposes the conversation orchestrator.
type ChatHandler struct {
	orchestrator *chat.Orchestrator
	logger       *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orchestrator *chat.Orchestrator, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		logger:       log,
	}
}

// Send handles POST /api/v1/chat/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appended, err := h.orchestrator.Send(r.Context(), req.Content)
	if err != nil {
		if errors.Is(err, chat.ErrBusy) {
			writeError(w, http.StatusConflict, "a message is already being processed")
			return
		}
		h.logger.Error("send failed")
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, model.SendMessageResponse{Messages: appended})
}

// List handles GET /api/v1/chat/messages
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ListMessagesResponse{
		Messages: h.orchestrator.Messages(),
	})
}
