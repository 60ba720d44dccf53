package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/intervoxlabs/intervox/config"
	"github.com/intervoxlabs/intervox/internal/api/handlers"
	"github.com/intervoxlabs/intervox/internal/api/middleware"
	"github.com/intervoxlabs/intervox/internal/api/routes"
	"github.com/intervoxlabs/intervox/internal/feedback"
	"github.com/intervoxlabs/intervox/internal/logger"
	"github.com/intervoxlabs/intervox/internal/providers/llm"
	"github.com/intervoxlabs/intervox/internal/providers/voice"
	"github.com/intervoxlabs/intervox/internal/session"
	"github.com/intervoxlabs/intervox/internal/store"
)

func main() {
	_ = godotenv.Load()

	appLog := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.DevCredentials {
		appLog.Warn("running with dev voice credentials; not a production posture")
	}

	// Feedback records: redis when configured, in-memory otherwise
	rdb, err := config.InitRedis(cfg)
	if err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	var records store.FeedbackStore
	if rdb != nil {
		records = store.NewRedisStore(rdb, cfg.FeedbackTTL)
		appLog.Info("Redis connected")
	} else {
		records = store.NewMemoryStore()
		appLog.Warn("REDIS_ADDR not set, feedback records held in memory")
	}

	ctx := context.Background()
	llmProvider, err := llm.NewVertexGemini(ctx, cfg.GoogleProjectID, cfg.GoogleLocation, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer llmProvider.Close()

	gen := feedback.NewGenerator(llmProvider, appLog, cfg.GenerateTimeout)

	// The requester goes through the same HTTP surface the display client
	// uses, so both share one generation contract.
	endpoint := "http://127.0.0.1:" + cfg.Port + "/api/generate-feedback"
	requester := feedback.NewRequester(endpoint, records, appLog, cfg.FeedbackTimeout)

	mgr := session.NewManager(session.Deps{
		Factory:    voice.NewWSFactory(voice.WSConfig{URL: cfg.VoiceWSURL, APIKey: cfg.VoiceAPIKey}),
		Ledger:     voice.NewLedger(),
		Dispatcher: requester,
		Logger:     appLog,
		SayTimeout: cfg.SayTimeout,
	})
	defer mgr.Shutdown()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(appLog))

	routes.RegisterRoutes(r, routes.Deps{
		Feedback:    handlers.NewFeedbackHandler(gen),
		Webhook:     handlers.NewWebhookHandler(gen, appLog),
		Credentials: handlers.NewCredentialsHandler(cfg),
		Session:     handlers.NewSessionHandler(mgr, records),
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
