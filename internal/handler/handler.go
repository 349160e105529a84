package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vontonau/llmfallback/internal/dispatcher"
)

// CompletionHandler is the JSON surface over the dispatcher. It accepts a
// prompt plus an opaque parameter bag and returns whichever provider
// response the dispatcher settled on, untouched.
type CompletionHandler struct {
	logger     *slog.Logger
	dispatcher *dispatcher.Dispatcher
}

type completionRequest struct {
	Prompt string         `json:"prompt"`
	Params map[string]any `json:"params"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewCompletionHandler(logger *slog.Logger, d *dispatcher.Dispatcher) *CompletionHandler {
	return &CompletionHandler{
		logger:     logger,
		dispatcher: d,
	}
}

func (h *CompletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	h.logger.Info("Received completion request",
		slog.String("request_id", requestID),
		slog.Int("prompt_length", len(req.Prompt)))

	start := time.Now()
	response, err := h.dispatcher.DispatchContext(r.Context(), req.Prompt, req.Params)

	if err != nil {
		switch {
		case errors.Is(err, dispatcher.ErrAllProvidersUnavailable):
			h.logger.Warn("All providers unavailable",
				slog.String("request_id", requestID))
			writeError(w, http.StatusServiceUnavailable, "all providers unavailable")
		case errors.Is(err, dispatcher.ErrCapabilityMismatch):
			// Misconfiguration, not a provider outage.
			h.logger.Error("Provider capability misconfigured",
				slog.String("request_id", requestID),
				slog.Any("err", err))
			writeError(w, http.StatusInternalServerError, "provider misconfigured")
		default:
			h.logger.Error("Dispatch failed",
				slog.String("request_id", requestID),
				slog.Any("err", err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.logger.Info("Completion served",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode response",
			slog.String("request_id", requestID),
			slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
