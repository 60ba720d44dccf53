package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Dev placeholders used only when ALLOW_DEV_CREDENTIALS=true. Missing voice
// credentials are otherwise a startup error, not a silent fallback.
const (
	DevVoiceAPIKey      = "dev-public-key"
	DevVoiceAssistantID = "dev-assistant-id"
)

type Config struct {
	Port string

	GoogleProjectID string
	GoogleLocation  string
	GeminiModel     string

	VoiceWSURL       string
	VoiceAPIKey      string
	VoiceAssistantID string
	DevCredentials   bool

	RedisAddr string

	// Timeout budgets for the three races in the interview flow.
	SayTimeout      time.Duration // closing remark vs forced stop
	FeedbackTimeout time.Duration // requester fetch abort
	GenerateTimeout time.Duration // model call vs fallback

	FeedbackTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            envOr("PORT", "8080"),
		GoogleProjectID: os.Getenv("GOOGLE_PROJECT_ID"),
		GoogleLocation:  envOr("GOOGLE_LOCATION", "us-central1"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-1.5-flash"),
		VoiceWSURL:      envOr("VOICE_WS_URL", "wss://api.vapi.ai/ws"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		SayTimeout:      envSeconds("SAY_TIMEOUT_SECONDS", 5*time.Second),
		FeedbackTimeout: envSeconds("FEEDBACK_TIMEOUT_SECONDS", 10*time.Second),
		GenerateTimeout: envSeconds("GENERATE_TIMEOUT_SECONDS", 25*time.Second),
		FeedbackTTL:     envSeconds("FEEDBACK_TTL_SECONDS", 24*time.Hour),
	}

	cfg.VoiceAPIKey = os.Getenv("VAPI_API_KEY")
	cfg.VoiceAssistantID = os.Getenv("VAPI_ASSISTANT_ID")
	if cfg.VoiceAPIKey == "" || cfg.VoiceAssistantID == "" {
		if os.Getenv("ALLOW_DEV_CREDENTIALS") != "true" {
			return nil, errors.New("VAPI_API_KEY and VAPI_ASSISTANT_ID must be set (or ALLOW_DEV_CREDENTIALS=true for local development)")
		}
		cfg.DevCredentials = true
		if cfg.VoiceAPIKey == "" {
			cfg.VoiceAPIKey = DevVoiceAPIKey
		}
		if cfg.VoiceAssistantID == "" {
			cfg.VoiceAssistantID = DevVoiceAssistantID
		}
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
