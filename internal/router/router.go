package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"studymate-backend/internal/handlers"
	"studymate-backend/internal/middleware"
	"studymate-backend/internal/websocket"
)

func New(
	log *zap.Logger,
	ollamaHandler *handlers.OllamaHandler,
	generateHandler *handlers.GenerateHandler,
	chatHandler *handlers.ChatHandler,
	documentHandler *handlers.DocumentHandler,
	examHandler *handlers.ExamHandler,
	videoHandler *handlers.VideoHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	redisHealth func(ctx context.Context) error,
	frontendURL string,
	rateLimitPerMinute int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(frontendURL))

	// Generation limiter (per IP)
	genLimiter := middleware.NewRateLimiter(rateLimitPerMinute, time.Minute)

	// Health check. redisHealth is nil when Redis is not configured.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		state, redisState := "ok", "disabled"
		status := http.StatusOK
		if redisHealth != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisHealth(ctx); err != nil {
				log.Warn("redis health check failed", zap.Error(err))
				state, redisState = "degraded", "down"
				status = http.StatusServiceUnavailable
			} else {
				redisState = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"status": state, "redis": redisState})
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Ollama & Settings ────
		r.Get("/status", ollamaHandler.Status)
		r.Get("/models", ollamaHandler.ListModels)
		r.Get("/models/{name}/exists", ollamaHandler.ModelExists)
		r.Route("/settings/models", func(r chi.Router) {
			r.Get("/", ollamaHandler.GetModelSettings)
			r.Put("/", ollamaHandler.UpdateModelSettings)
		})

		// ──── Chat history (no generation) ────
		r.Get("/chat/history", chatHandler.History)
		r.Delete("/chat/history", chatHandler.ClearHistory)

		// ──── Job status ────
		r.Get("/jobs/{id}", jobHandler.GetJob)

		// ──── Generation routes (rate limited) ────
		r.Group(func(r chi.Router) {
			r.Use(genLimiter.Middleware)

			r.Post("/generate", generateHandler.Generate)
			r.Post("/generate/stream", generateHandler.Stream)

			r.Post("/chat", chatHandler.Chat)
			r.Post("/chat/questions", chatHandler.Questions)
			r.Post("/chat/explain", chatHandler.ExplainConcept)

			r.Route("/documents", func(r chi.Router) {
				r.Post("/analyze", documentHandler.Analyze)
				r.Post("/summary", documentHandler.Summary)
				r.Post("/keywords", documentHandler.Keywords)
				r.Post("/mindmap", documentHandler.MindMap)
				r.Post("/explain", documentHandler.Explain)
			})

			r.Post("/study-plans", documentHandler.StudyPlan)

			r.Route("/exams", func(r chi.Router) {
				r.Post("/generate", examHandler.Generate)
				r.Post("/evaluate", examHandler.Evaluate)
				r.Post("/report", examHandler.Report)
			})

			r.Route("/videos", func(r chi.Router) {
				r.Post("/transcript", videoHandler.Transcript)
				r.Post("/summary", videoHandler.Summary)
				r.Post("/ask", videoHandler.Ask)
				r.Post("/frame", videoHandler.Frame)
			})

			r.Post("/jobs", jobHandler.Create)
		})

		// ──── WebSocket ────
		r.Get("/ws/chat", wsHub.HandleChat)
		r.Get("/ws/jobs/{id}", wsHub.HandleJobUpdates)
	})

	return r
}
