package feedback

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/providers/llm"
)

// Generator turns transcripts into feedback and webhook branches into
// spoken lines. Every method resolves locally: model failures and timeouts
// come back as canned output, never as an error to the caller.
type Generator struct {
	llm     llm.Provider
	log     *logrus.Logger
	timeout time.Duration
}

func NewGenerator(p llm.Provider, log *logrus.Logger, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Generator{llm: p, log: log, timeout: timeout}
}

// generate races the model call against the configured timeout. The loser's
// result lands in the buffered channel and is discarded; there is no true
// cancellation of the provider call beyond the context.
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := g.llm.Generate(ctx, prompt)
		ch <- result{text, err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Feedback evaluates a transcript. Model or timeout failure yields the basic
// fallback; a response that parses but fails the schema yields the
// type/role-parameterized one.
func (g *Generator) Feedback(ctx context.Context, transcript models.Transcript, interviewType, role string) models.Feedback {
	text, err := g.generate(ctx, FeedbackPrompt(transcript, interviewType, role))
	if err != nil {
		g.log.WithError(err).Warn("feedback generation failed, using basic fallback")
		return BasicFallback()
	}

	fb, err := ParseFeedback(text)
	if err != nil {
		g.log.WithError(err).Warn("feedback output unparseable, using parse fallback")
		return ParseFallback(interviewType, role)
	}
	return fb
}

// OpeningLine generates the interviewer's first line for the call-started
// webhook branch.
func (g *Generator) OpeningLine(ctx context.Context, params models.CallParams) string {
	params = params.WithDefaults()
	text, err := g.generate(ctx, OpeningPrompt(params.InterviewType, params.Role))
	if err != nil || text == "" {
		g.log.WithError(err).Warn("opening line generation failed, using canned line")
		return FallbackOpeningLine
	}
	return text
}

// FollowUpLine generates the next question from the last 10 turns. Without a
// candidate turn there is nothing to follow up on, so it asks to repeat.
func (g *Generator) FollowUpLine(ctx context.Context, transcript models.Transcript, params models.CallParams) string {
	if _, ok := transcript.LastCandidate(); !ok {
		return ClarifyLine
	}

	params = params.WithDefaults()
	text, err := g.generate(ctx, FollowUpPrompt(transcript.Tail(10), params.InterviewType, params.Role))
	if err != nil || text == "" {
		g.log.WithError(err).Warn("follow-up generation failed, using canned line")
		return FallbackFollowUpLine
	}
	return text
}

// WebhookFeedback is the call-ended branch: same prompt as Feedback, lenient
// parse, static fallback on any failure.
func (g *Generator) WebhookFeedback(ctx context.Context, transcript models.Transcript, params models.CallParams) models.Feedback {
	params = params.WithDefaults()
	text, err := g.generate(ctx, FeedbackPrompt(transcript, params.InterviewType, params.Role))
	if err != nil {
		g.log.WithError(err).Warn("webhook feedback generation failed, using fallback")
		return WebhookFallback()
	}

	fb, err := ParseFeedbackLenient(text)
	if err != nil {
		g.log.WithError(err).Warn("webhook feedback unparseable, using fallback")
		return WebhookFallback()
	}
	return fb
}
