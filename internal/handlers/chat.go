package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

// HistoryStore lists and clears recorded chat messages.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]models.ChatMessage, error)
	Clear(ctx context.Context) error
}

type ChatHandler struct {
	study   *services.StudyService
	history HistoryStore
	log     *zap.Logger
}

// NewChatHandler builds the chat endpoints. history may be nil when Redis is not configured.
func NewChatHandler(study *services.StudyService, history HistoryStore, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{study: study, history: history, log: log}
}

// Chat streams the assistant's reply as NDJSON.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"message": req.Message}) {
		return
	}

	chunks, errc := h.study.StreamChat(r.Context(), req.Message, req.Context)
	streamNDJSON(w, r, chunks, errc, h.log)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("HISTORY_DISABLED", "Chat history requires Redis", r))
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be a non-negative integer", r))
			return
		}
		limit = n
	}

	msgs, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to load chat history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chat history", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("HISTORY_DISABLED", "Chat history requires Redis", r))
		return
	}
	if err := h.history.Clear(r.Context()); err != nil {
		h.log.Error("failed to clear chat history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to clear chat history", r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) Questions(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"topic": req.Topic}) {
		return
	}

	text, err := h.study.GenerateQuestions(r.Context(), req.Topic, req.Count)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TextResponse{Text: text})
}

func (h *ChatHandler) ExplainConcept(w http.ResponseWriter, r *http.Request) {
	var req models.ConceptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"concept": req.Concept}) {
		return
	}

	text, err := h.study.ExplainConcept(r.Context(), req.Concept, req.Context)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TextResponse{Text: text})
}
