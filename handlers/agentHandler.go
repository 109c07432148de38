package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tomdro61/shop-pilot-sub000/config"
	"github.com/tomdro61/shop-pilot-sub000/eventstream"
	"github.com/tomdro61/shop-pilot-sub000/logging"
	"github.com/tomdro61/shop-pilot-sub000/models"
	"github.com/tomdro61/shop-pilot-sub000/services/agent"

	"github.com/gorilla/mux"
)

const maxChatBodyBytes = 1 << 20

// ChatRunner answers one conversation turn, streaming events to sink.
type ChatRunner interface {
	Run(ctx context.Context, history []models.Turn, sink agent.EventSink) error
}

type AgentHandler struct {
	runner       ChatRunner
	rejectPolicy string
}

func NewAgentHandler(runner ChatRunner, rejectPolicy string) *AgentHandler {
	return &AgentHandler{runner: runner, rejectPolicy: rejectPolicy}
}

func (h *AgentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/agent/chat", h.Chat).Methods("POST")
}

func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req models.AgentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("chat request too large", "limit", tooLarge.Limit)
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "Conversation too large. Please start a new conversation.")
			return
		}
		h.reject(w, r, "Invalid JSON payload", err)
		return
	}
	if len(req.Messages) == 0 {
		h.reject(w, r, "At least one message is required", nil)
		return
	}

	history := agent.BuildHistory(req.Messages, req.ConversationState)
	if err := agent.ValidateHistory(history); err != nil {
		h.reject(w, r, err.Error(), err)
		return
	}

	stream, err := eventstream.NewWriter(w)
	if err != nil {
		logger.Error("response does not support streaming", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	stream.Start()

	logger.Info("chat started", "turns", len(history), "resumed", len(req.ConversationState) > 0)

	err = h.runner.Run(r.Context(), history, func(event models.StreamEvent) error {
		return stream.Send(event.Type, event.Payload())
	})
	if err != nil {
		logger.Warn("chat ended with error", "error", err)
		return
	}
	logger.Info("chat completed")
}

// reject answers a malformed request before any stream is opened.
func (h *AgentHandler) reject(w http.ResponseWriter, r *http.Request, message string, cause error) {
	logger := logging.FromContext(r.Context())
	if h.rejectPolicy == config.RejectPolicyLog {
		logger.Warn("ignoring malformed chat request", "reason", message, "error", cause)
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	logger.Warn("rejected chat request", "reason", message, "error", cause)
	writeErrorResponse(w, http.StatusBadRequest, message)
}
