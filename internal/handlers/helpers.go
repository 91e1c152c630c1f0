package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"studymate-backend/internal/middleware"
	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
	"studymate-backend/internal/services"
)

const maxBodyBytes = 20 << 20 // images arrive base64-encoded

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

// decodeBody reads a JSON body into dst, writing the error response itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Request body is too large", r))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return false
	}
	return true
}

// requireFields reports blank required fields as a validation error.
func requireFields(w http.ResponseWriter, r *http.Request, fields map[string]string) bool {
	missing := map[string]string{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing[name] = "is required"
		}
	}
	if len(missing) == 0 {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", missing, r))
	return false
}

// errorStatus maps a generation or service error to a status code and error code.
func errorStatus(err error) (int, string) {
	var notFound *ollama.ModelNotFoundError
	var status *ollama.StatusError

	switch {
	case errors.Is(err, ollama.ErrEmptyPrompt):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, services.ErrInvalidVideoURL):
		return http.StatusBadRequest, "INVALID_VIDEO_URL"
	case errors.Is(err, services.ErrTranscriptUnavailable):
		return http.StatusUnprocessableEntity, "NO_TRANSCRIPT"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "MODEL_NOT_FOUND"
	case errors.As(err, &status):
		return http.StatusBadGateway, "OLLAMA_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, ollama.ErrUnavailable):
		return http.StatusServiceUnavailable, "OLLAMA_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "AI_ERROR"
	}
}

func handleGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return // client went away
	}
	status, code := errorStatus(err)
	message := ollama.Describe(err)
	if code == "INVALID_VIDEO_URL" || code == "NO_TRANSCRIPT" || code == "VALIDATION_ERROR" {
		message = err.Error()
	}
	writeJSON(w, status, errorResp(code, message, r))
}
