package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
)

type fakeChat struct {
	chunks []string
	err    error
}

func (f *fakeChat) StreamChat(ctx context.Context, message, _ string) (<-chan ollama.Chunk, <-chan error) {
	out := make(chan ollama.Chunk)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, c := range f.chunks {
			select {
			case out <- ollama.Chunk{Text: c}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if f.err != nil {
			errc <- f.err
		}
	}()
	return out, errc
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHandleChat_StreamsReply(t *testing.T) {
	hub := NewHub(nil, &fakeChat{chunks: []string{"Hel", "", "lo"}}, nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleChat))
	defer srv.Close()

	conn := dial(t, srv, "/")
	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: "hi"}))

	first := readFrame(t, conn)
	assert.Equal(t, "partial_content", first.Type)
	var p1 models.PartialContent
	require.NoError(t, json.Unmarshal(first.Payload, &p1))
	assert.Equal(t, "Hel", p1.Chunk)
	assert.Equal(t, 1, p1.TotalChunksSent)

	second := readFrame(t, conn)
	var p2 models.PartialContent
	require.NoError(t, json.Unmarshal(second.Payload, &p2))
	assert.Equal(t, "lo", p2.Chunk)
	assert.Equal(t, 2, p2.TotalChunksSent)

	done := readFrame(t, conn)
	assert.Equal(t, "completed", done.Type)
	var c models.CompletedEvent
	require.NoError(t, json.Unmarshal(done.Payload, &c))
	assert.Equal(t, "Hello", c.Reply)
}

func TestHandleChat_Errors(t *testing.T) {
	hub := NewHub(nil, &fakeChat{err: &ollama.ModelNotFoundError{Model: "chat-model"}}, nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleChat))
	defer srv.Close()

	conn := dial(t, srv, "/")

	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: "   "}))
	invalid := readFrame(t, conn)
	assert.Equal(t, "error", invalid.Type)
	assert.Contains(t, string(invalid.Payload), "VALIDATION_ERROR")

	// the socket stays usable after a failed reply
	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: "hi"}))
	failed := readFrame(t, conn)
	assert.Equal(t, "error", failed.Type)
	var e models.ErrorEvent
	require.NoError(t, json.Unmarshal(failed.Payload, &e))
	assert.Equal(t, "MODEL_NOT_FOUND", e.ErrorCode)
	assert.Contains(t, e.ErrorMessage, "ollama pull chat-model")
}

func TestHandleJobUpdates_WithoutRedis(t *testing.T) {
	hub := NewHub(nil, &fakeChat{}, nil)
	r := chi.NewRouter()
	r.Get("/ws/jobs/{id}", hub.HandleJobUpdates)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
