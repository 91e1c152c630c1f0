package handlers

import (
	"context"
	"net/http"

	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

type DocumentHandler struct {
	study *services.StudyService
}

func NewDocumentHandler(study *services.StudyService) *DocumentHandler {
	return &DocumentHandler{study: study}
}

func (h *DocumentHandler) documentRequest(w http.ResponseWriter, r *http.Request) (models.DocumentRequest, bool) {
	var req models.DocumentRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	return req, requireFields(w, r, map[string]string{"content": req.Content})
}

func (h *DocumentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.documentRequest(w, r)
	if !ok {
		return
	}

	analysis, err := h.study.AnalyzeDocument(r.Context(), req.Content)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *DocumentHandler) textOperation(op func(ctx context.Context, req models.DocumentRequest) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.documentRequest(w, r)
		if !ok {
			return
		}
		text, err := op(r.Context(), req)
		if err != nil {
			handleGenerationError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.TextResponse{Text: text})
	}
}

func (h *DocumentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	h.textOperation(func(ctx context.Context, req models.DocumentRequest) (string, error) {
		return h.study.Summarize(ctx, req.Content)
	})(w, r)
}

func (h *DocumentHandler) MindMap(w http.ResponseWriter, r *http.Request) {
	h.textOperation(func(ctx context.Context, req models.DocumentRequest) (string, error) {
		return h.study.GenerateMindMap(ctx, req.Content)
	})(w, r)
}

func (h *DocumentHandler) Explain(w http.ResponseWriter, r *http.Request) {
	h.textOperation(func(ctx context.Context, req models.DocumentRequest) (string, error) {
		return h.study.ExplainTopic(ctx, req.Content, req.Topic)
	})(w, r)
}

func (h *DocumentHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	req, ok := h.documentRequest(w, r)
	if !ok {
		return
	}

	keywords, err := h.study.ExtractKeywords(r.Context(), req.Content)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"keywords": keywords})
}

func (h *DocumentHandler) StudyPlan(w http.ResponseWriter, r *http.Request) {
	var req models.StudyPlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"topics": req.Topics}) {
		return
	}

	plan, err := h.study.GenerateStudyPlan(r.Context(), req.Topics, req.Context)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": plan})
}
