package voice

import (
	"context"

	"github.com/intervoxlabs/intervox/internal/models"
)

// Assistant is the transient assistant configuration a call is started with.
type Assistant struct {
	Name             string `json:"name"`
	SystemPrompt     string `json:"systemPrompt"`
	FirstMessage     string `json:"firstMessage,omitempty"`
	VoiceID          string `json:"voiceId,omitempty"`
	TranscriberModel string `json:"transcriberModel,omitempty"`
	Language         string `json:"language,omitempty"`
	RecordingEnabled bool   `json:"recordingEnabled"`
}

// Handlers receive call lifecycle events. All callbacks are optional and are
// invoked from the client's read goroutine; they must not block.
type Handlers struct {
	OnCallStart   func()
	OnCallEnd     func()
	OnSpeechStart func()
	OnSpeechEnd   func()
	OnVolume      func(level float64)
	OnTranscript  func(role models.Role, content string)
	OnError       func(err error)
}

// Client is one call against the realtime voice provider. A client is owned
// by exactly one session controller at a time.
type Client interface {
	Start(ctx context.Context, assistant Assistant) error
	Stop() error
	Say(ctx context.Context, text string, endCallAfter bool) error
	SetMuted(muted bool) error
	IsMuted() bool
}

// Factory builds a fresh client wired to h. Injected into the session
// controller so tests can substitute a fake provider.
type Factory func(h Handlers) (Client, error)
