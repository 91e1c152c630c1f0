package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studymate-backend/internal/modelconfig"
	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
)

// OllamaClient is the part of the Ollama client the status endpoints use.
type OllamaClient interface {
	IsServiceAvailable(ctx context.Context) bool
	ListModels(ctx context.Context) ([]ollama.Model, error)
	CheckModelExists(ctx context.Context, modelID string) bool
}

// ModelSettings reads and replaces the per-category model selection.
type ModelSettings interface {
	Models() modelconfig.Models
	SetModels(m modelconfig.Models) error
	SetAll(model string) error
}

type OllamaHandler struct {
	client   OllamaClient
	settings ModelSettings
	baseURL  string
}

func NewOllamaHandler(client OllamaClient, settings ModelSettings, baseURL string) *OllamaHandler {
	return &OllamaHandler{client: client, settings: settings, baseURL: baseURL}
}

func categoryMap(m modelconfig.Models) map[string]string {
	out := make(map[string]string, len(ollama.Categories))
	for _, c := range ollama.Categories {
		out[c.String()] = m.For(c)
	}
	return out
}

func (h *OllamaHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ServiceStatus{
		Available: h.client.IsServiceAvailable(r.Context()),
		BaseURL:   h.baseURL,
		Models:    categoryMap(h.settings.Models()),
	})
}

func (h *OllamaHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.ListModels(r.Context())
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	if list == nil {
		list = []ollama.Model{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": list})
}

func (h *OllamaHandler) ModelExists(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Model name is required", r))
		return
	}
	writeJSON(w, http.StatusOK, models.ModelExists{
		Model:  name,
		Exists: h.client.CheckModelExists(r.Context(), name),
	})
}

func (h *OllamaHandler) GetModelSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Models())
}

// UpdateModelSettings replaces the model selection. {"all": "<model>"} sets every
// category at once; empty category values fall back to the default model.
func (h *OllamaHandler) UpdateModelSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		modelconfig.Models
		All string `json:"all"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var err error
	if all := strings.TrimSpace(req.All); all != "" {
		err = h.settings.SetAll(all)
	} else {
		err = h.settings.SetModels(modelconfig.Models{
			Document: strings.TrimSpace(req.Document),
			Chat:     strings.TrimSpace(req.Chat),
			Video:    strings.TrimSpace(req.Video),
			General:  strings.TrimSpace(req.General),
		})
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("SETTINGS_ERROR", "Failed to save model settings", r))
		return
	}

	writeJSON(w, http.StatusOK, h.settings.Models())
}
