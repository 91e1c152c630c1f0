package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studymate-backend/internal/config"
	"studymate-backend/internal/database"
	"studymate-backend/internal/handlers"
	"studymate-backend/internal/logger"
	"studymate-backend/internal/modelconfig"
	"studymate-backend/internal/ollama"
	"studymate-backend/internal/repository"
	"studymate-backend/internal/router"
	"studymate-backend/internal/services"
	"studymate-backend/internal/websocket"
	"studymate-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// ──── Step 2: Initialize Logger ────
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logCfg.Output = cfg.LogOutput
	logCfg.File = cfg.LogFile
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("🚀 Starting StudyMate Backend...", zap.String("env", cfg.Env))

	// ──── Step 3: Load Model Settings ────
	settings := modelconfig.Load(cfg.ModelConfigPath, cfg.DefaultModel)
	log.Info("✓ Model settings loaded",
		zap.String("path", settings.Path()),
		zap.Any("models", settings.Models()),
	)

	// ──── Step 4: Initialize Ollama Client ────
	client, err := ollama.New(cfg.OllamaBaseURL, settings,
		ollama.WithProbeTimeout(cfg.ProbeTimeout),
		ollama.WithGenerateTimeout(cfg.GenerateTimeout),
		ollama.WithLogger(log.Named("ollama")),
	)
	if err != nil {
		log.Fatal("✗ Ollama client initialization failed", zap.Error(err))
	}

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), cfg.ProbeTimeout)
	if client.IsServiceAvailable(probeCtx) {
		log.Info("✓ Ollama reachable", zap.String("url", cfg.OllamaBaseURL))
	} else {
		log.Warn("✗ Ollama not reachable, generation requests will fail until it is started", zap.String("url", cfg.OllamaBaseURL))
	}
	cancelProbe()

	studyService := services.NewStudyService(client, cfg.OllamaConcurrentReqs, log.Named("study"))
	youtubeService := services.NewYouTubeService(log.Named("youtube"))

	// ──── Step 5: Initialize Redis (optional) ────
	var (
		redisClients *database.RedisClients
		workerPool   *worker.Pool
		jobQueue     handlers.JobQueue
		chatHistory  handlers.HistoryStore
	)
	if cfg.RedisEnabled() {
		redisClients, err = database.NewRedisClients(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal("✗ Redis connection failed", zap.Error(err))
		}
		defer redisClients.Close()
		log.Info("✓ Redis connected")

		jobRepo := repository.NewJobRepo(redisClients.Queue)
		chatRepo := repository.NewChatRepo(redisClients.Queue, 0)
		jobQueue = jobRepo
		chatHistory = chatRepo
		studyService.WithHistory(chatRepo)

		// ──── Step 6: Start Job Worker Pool ────
		workerPool = worker.NewPool(redisClients.Queue, studyService, jobRepo, cfg.WorkerCount, log.Named("worker"))
		workerPool.Start(context.Background())
		log.Info("✓ Worker pool started", zap.Int("workers", cfg.WorkerCount))
	} else {
		log.Info("Redis not configured, background jobs and chat history are disabled")
	}

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := newHub(redisClients, studyService, log)
	log.Info("✓ WebSocket hub started")

	var redisHealth func(ctx context.Context) error
	if redisClients != nil {
		redisHealth = redisClients.Healthy
	}

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		log,
		handlers.NewOllamaHandler(client, settings, cfg.OllamaBaseURL),
		handlers.NewGenerateHandler(studyService, settings, log),
		handlers.NewChatHandler(studyService, chatHistory, log),
		handlers.NewDocumentHandler(studyService),
		handlers.NewExamHandler(studyService),
		handlers.NewVideoHandler(studyService, youtubeService),
		handlers.NewJobHandler(jobQueue, log),
		wsHub,
		redisHealth,
		cfg.FrontendURL,
		cfg.RateLimitPerMinute,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerateTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		if workerPool != nil {
			workerPool.Stop()
		}
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info(fmt.Sprintf("✓ StudyMate Backend ready on http://localhost:%s", cfg.Port))
	log.Info(fmt.Sprintf("  API: http://localhost:%s/api/v1", cfg.Port))
	log.Info(fmt.Sprintf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server error", zap.Error(err))
	}
}

func newHub(clients *database.RedisClients, study *services.StudyService, log *zap.Logger) *websocket.Hub {
	if clients == nil {
		return websocket.NewHub(nil, study, log.Named("ws"))
	}
	return websocket.NewHub(clients.PubSub, study, log.Named("ws"))
}
