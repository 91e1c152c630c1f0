package websocket

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studymate-backend/internal/models"
	"studymate-backend/internal/ollama"
	"studymate-backend/internal/repository"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChatStreamer produces streamed chat replies.
type ChatStreamer interface {
	StreamChat(ctx context.Context, message, contextText string) (<-chan ollama.Chunk, <-chan error)
}

type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	cancelFuncs map[uuid.UUID]context.CancelFunc
	redisClient *redis.Client
	chat        ChatStreamer
	log         *zap.Logger
}

// NewHub builds the hub. redisClient may be nil, in which case job updates are unavailable.
func NewHub(redisClient *redis.Client, chat ChatStreamer, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		redisClient: redisClient,
		chat:        chat,
		log:         log,
	}
}

// HandleChat streams a reply for every chat message the client sends.
// Each reply is a run of "partial_content" frames closed by "completed" or "error".
func (h *Hub) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		var req models.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("chat socket closed", zap.Error(err))
			}
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			if writeMessage(conn, models.WSMessage{
				Type:    "error",
				Payload: models.ErrorEvent{ErrorCode: "VALIDATION_ERROR", ErrorMessage: "Message is required"},
			}) != nil {
				return
			}
			continue
		}

		if err := h.streamReply(ctx, conn, req); err != nil {
			h.log.Debug("chat socket write failed", zap.Error(err))
			return
		}
	}
}

func (h *Hub) streamReply(ctx context.Context, conn *websocket.Conn, req models.ChatRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, errc := h.chat.StreamChat(ctx, req.Message, req.Context)

	var reply strings.Builder
	sent := 0
	for chunk := range chunks {
		if chunk.Text == "" {
			continue
		}
		reply.WriteString(chunk.Text)
		sent++
		if err := writeMessage(conn, models.WSMessage{
			Type:    "partial_content",
			Payload: models.PartialContent{Chunk: chunk.Text, TotalChunksSent: sent},
		}); err != nil {
			cancel()
			for range chunks {
			}
			return err
		}
	}

	if err := <-errc; err != nil {
		code := "AI_ERROR"
		if ollama.IsModelNotFound(err) {
			code = "MODEL_NOT_FOUND"
		}
		return writeMessage(conn, models.WSMessage{
			Type:    "error",
			Payload: models.ErrorEvent{ErrorCode: code, ErrorMessage: ollama.Describe(err)},
		})
	}

	return writeMessage(conn, models.WSMessage{
		Type:    "completed",
		Payload: models.CompletedEvent{ResultType: "chat", Reply: reply.String()},
	})
}

func writeMessage(conn *websocket.Conn, msg models.WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// HandleJobUpdates relays the progress messages of one job to the client.
func (h *Hub) HandleJobUpdates(w http.ResponseWriter, r *http.Request) {
	if h.redisClient == nil {
		http.Error(w, "Background jobs are not enabled", http.StatusServiceUnavailable)
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.registerConnection(jobID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(jobID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(jobID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[jobID] = append(h.connections[jobID], conn)

	// Start pub/sub subscription if this is the first connection for this job
	if len(h.connections[jobID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[jobID] = cancel
		go h.subscribeToPubSub(ctx, jobID)
	}

	h.log.Debug("job socket connected", zap.Stringer("job_id", jobID), zap.Int("total", len(h.connections[jobID])))
}

func (h *Hub) unregisterConnection(jobID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[jobID]
	for i, c := range conns {
		if c == conn {
			h.connections[jobID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[jobID]) == 0 {
		delete(h.connections, jobID)
		if cancel, ok := h.cancelFuncs[jobID]; ok {
			cancel()
			delete(h.cancelFuncs, jobID)
		}
	}

	h.log.Debug("job socket disconnected", zap.Stringer("job_id", jobID))
}

func (h *Hub) subscribeToPubSub(ctx context.Context, jobID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, repository.UpdatesChannel(jobID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(jobID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(jobID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[jobID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("job update write failed", zap.Stringer("job_id", jobID), zap.Error(err))
		}
	}
}

// Close ends every job subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, id)
	}
}
