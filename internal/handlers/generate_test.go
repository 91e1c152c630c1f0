package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
	"studymate-backend/internal/services"
)

type fixedModel string

func (m fixedModel) ModelFor(ollama.Category) string { return string(m) }

// newSlowGenerateHandler wires a real client to an Ollama stand-in that answers after delay.
func newSlowGenerateHandler(t *testing.T, delay time.Duration) *GenerateHandler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(delay):
			json.NewEncoder(w).Encode(map[string]interface{}{"response": "late", "done": true})
		}
	}))
	t.Cleanup(srv.Close)

	client, err := ollama.New(srv.URL, fixedModel("general-model"))
	require.NoError(t, err)
	return NewGenerateHandler(services.NewStudyService(client, 1, nil), fixedModel("general-model"), nil)
}

func TestGenerate_UpstreamTimeoutIs504(t *testing.T) {
	h := newSlowGenerateHandler(t, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{"prompt":"hi"}`)).WithContext(ctx)
	rr := httptest.NewRecorder()

	h.Generate(rr, req)

	require.Equal(t, http.StatusGatewayTimeout, rr.Code)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "TIMEOUT", body.Error.Code)
}

func TestGenerate_ClientGoneWritesNothing(t *testing.T) {
	h := newSlowGenerateHandler(t, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{"prompt":"hi"}`)).WithContext(ctx)
	rr := httptest.NewRecorder()

	h.Generate(rr, req)

	assert.Empty(t, rr.Body.String())
}
