package handlers

import (
	"context"
	"errors"
	"net/http"

	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

// TranscriptFetcher resolves a video URL to its metadata and transcript.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoURL string) (*models.VideoTranscript, error)
}

type VideoHandler struct {
	study   *services.StudyService
	youtube TranscriptFetcher
}

func NewVideoHandler(study *services.StudyService, youtube TranscriptFetcher) *VideoHandler {
	return &VideoHandler{study: study, youtube: youtube}
}

// Transcript returns the video details. A video without captions is still
// returned, with has_transcript false.
func (h *VideoHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	var req models.VideoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"url": req.URL}) {
		return
	}

	video, err := h.youtube.FetchTranscript(r.Context(), req.URL)
	if err != nil && !(errors.Is(err, services.ErrTranscriptUnavailable) && video != nil) {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

// Summary summarizes a transcript, fetching it first when only a URL is given.
func (h *VideoHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL        string `json:"url"`
		Transcript string `json:"transcript"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Transcript == "" && req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"transcript": "transcript or url is required"}, r))
		return
	}

	transcript := req.Transcript
	if transcript == "" {
		video, err := h.youtube.FetchTranscript(r.Context(), req.URL)
		if err != nil {
			handleGenerationError(w, r, err)
			return
		}
		transcript = video.Transcript
	}

	text, err := h.study.SummarizeVideo(r.Context(), transcript)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TextResponse{Text: text})
}

func (h *VideoHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.VideoQuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"question": req.Question}) {
		return
	}

	text, err := h.study.AskVideo(r.Context(), req.Question, req.Transcript)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TextResponse{Text: text})
}

func (h *VideoHandler) Frame(w http.ResponseWriter, r *http.Request) {
	var req models.FrameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, r, map[string]string{"image_base64": req.ImageBase64}) {
		return
	}

	text, err := h.study.AnalyzeFrame(r.Context(), req.ImageBase64, req.Prompt)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TextResponse{Text: text})
}
