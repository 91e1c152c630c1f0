package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
	"studymate-backend/internal/services"
)

type GenerateHandler struct {
	study    *services.StudyService
	resolver ollama.ModelResolver
	log      *zap.Logger
}

func NewGenerateHandler(study *services.StudyService, resolver ollama.ModelResolver, log *zap.Logger) *GenerateHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerateHandler{study: study, resolver: resolver, log: log}
}

func (h *GenerateHandler) request(w http.ResponseWriter, r *http.Request) (ollama.Request, bool) {
	var req models.GenerateRequest
	if !decodeBody(w, r, &req) {
		return ollama.Request{}, false
	}
	if !requireFields(w, r, map[string]string{"prompt": req.Prompt}) {
		return ollama.Request{}, false
	}
	return ollama.Request{
		Prompt:      req.Prompt,
		System:      req.Context,
		ImageBase64: req.ImageBase64,
		Category:    ollama.ParseCategory(req.Category),
	}, true
}

// Generate runs a non-streaming completion.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}

	text, err := h.study.Complete(r.Context(), req)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TextResponse{Text: text, Model: h.resolver.ModelFor(req.Category)})
}

// Stream runs a streaming completion and relays it as NDJSON.
func (h *GenerateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}

	chunks, errc := h.study.Stream(r.Context(), req)
	streamNDJSON(w, r, chunks, errc, h.log)
}

type streamLine struct {
	Response string `json:"response,omitempty"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// streamNDJSON relays chunks one JSON object per line. Failures before the first
// chunk become an ordinary error response; later ones end the stream with an error line.
// Returning early cancels the request context, which stops the producer.
func streamNDJSON(w http.ResponseWriter, r *http.Request, chunks <-chan ollama.Chunk, errc <-chan error, log *zap.Logger) {
	first, open := <-chunks
	if !open {
		if err := <-errc; err != nil {
			handleGenerationError(w, r, err)
			return
		}
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line streamLine) bool {
		if err := enc.Encode(line); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	sawDone := false
	if open {
		sawDone = first.Done
		if !send(streamLine{Response: first.Text, Done: first.Done}) {
			return
		}
		for chunk := range chunks {
			sawDone = chunk.Done
			if !send(streamLine{Response: chunk.Text, Done: chunk.Done}) {
				return
			}
		}
	}

	if err := <-errc; err != nil {
		_, code := errorStatus(err)
		log.Debug("stream ended with error", zap.Error(err))
		send(streamLine{Done: true, Error: ollama.Describe(err), Code: code})
		return
	}
	if !sawDone {
		send(streamLine{Done: true})
	}
}
