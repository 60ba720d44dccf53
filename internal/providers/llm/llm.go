package llm

import "context"

type Provider interface {
	// Generate returns the model's full text response for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}
