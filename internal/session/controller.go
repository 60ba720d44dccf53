package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intervoxlabs/intervox/internal/feedback"
	"github.com/intervoxlabs/intervox/internal/logger"
	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/providers/voice"
	"github.com/intervoxlabs/intervox/internal/utils"
)

// Dispatcher is the feedback hand-off. Implementations must not return
// errors to the controller; the session always reaches Done.
type Dispatcher interface {
	RequestFeedback(ctx context.Context, sessionID string, transcript models.Transcript, interviewType, role string)
}

// Deps are the collaborators a controller is built with. Factory and
// Dispatcher are injected so tests can run without a live provider.
type Deps struct {
	Factory    voice.Factory
	Ledger     *voice.Ledger
	Dispatcher Dispatcher
	Logger     *logrus.Logger
	SayTimeout time.Duration
	Now        func() time.Time
}

// benignTeardownPatterns are the provider errors expected while a call is
// being torn down. They are suppressed only when the session is ending.
var benignTeardownPatterns = []string{
	"Meeting has ended",
	"Exiting meeting because room was deleted",
}

func isBenignTeardown(err error) bool {
	msg := err.Error()
	for _, p := range benignTeardownPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Controller owns one interview session end to end: call lifecycle,
// transcript accumulation, error classification, and the hand-off into
// feedback generation. Adapter callbacks arrive on provider goroutines, so
// all state lives behind mu.
type Controller struct {
	id            string
	interviewType string
	role          string

	factory    voice.Factory
	ledger     *voice.Ledger
	dispatcher Dispatcher
	log        *logrus.Entry
	sayTimeout time.Duration
	now        func() time.Time

	mu         sync.Mutex
	phase      models.Phase
	client     voice.Client
	transcript models.Transcript
	micActive  bool
	aiSpeaking bool
	volume     float64
	lastErr    string
	greeted    bool
	finalized  bool
	// generation invalidates callbacks and late completions from a
	// superseded start attempt.
	generation int
	onDone     func(sessionID string)
}

func NewController(id, interviewType, role string, d Deps) *Controller {
	if d.SayTimeout <= 0 {
		d.SayTimeout = 5 * time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	return &Controller{
		id:            id,
		interviewType: interviewType,
		role:          role,
		factory:       d.Factory,
		ledger:        d.Ledger,
		dispatcher:    d.Dispatcher,
		log:           logger.ForSession(d.Logger, id),
		sayTimeout:    d.SayTimeout,
		now:           d.Now,
		phase:         models.PhaseIdle,
	}
}

// SetOnDone registers the callback fired once when the session reaches Done.
func (c *Controller) SetOnDone(fn func(sessionID string)) {
	c.mu.Lock()
	c.onDone = fn
	c.mu.Unlock()
}

func (c *Controller) ID() string { return c.id }

// Start opens the call. A session that is already initializing or active
// ignores the request; only one adapter instance ever exists per session.
func (c *Controller) Start(ctx context.Context) error {
	const op = "Controller.Start"

	c.mu.Lock()
	if c.phase != models.PhaseIdle {
		c.mu.Unlock()
		c.log.WithField("phase", c.phase).Debug("start ignored, session already in progress")
		return nil
	}
	c.phase = models.PhaseInitializing
	c.lastErr = ""
	c.greeted = false
	c.finalized = false
	c.generation++
	gen := c.generation

	prior := c.client
	c.client = nil
	c.mu.Unlock()

	// tear down anything a previous attempt left behind
	if prior != nil {
		_ = prior.Stop()
	}
	if swept := c.ledger.Sweep(); swept > 0 {
		c.log.WithField("handles", swept).Warn("released orphaned voice handles")
	}

	client, err := c.factory(c.handlers(gen))
	if err != nil {
		c.failStart(gen, fmt.Sprintf("Failed to start the interview: %v", err))
		return utils.E(utils.CodeUnavailable, op, "building voice client", err)
	}

	c.ledger.Register(c.id, func() { _ = client.Stop() })

	assistant := voice.Assistant{
		Name:             utils.FormatInterviewType(c.interviewType) + " Interview for " + utils.FormatRole(c.role),
		SystemPrompt:     feedback.SystemPrompt(c.interviewType, c.role),
		VoiceID:          "jennifer",
		TranscriberModel: "nova-2",
		Language:         "en-US",
		RecordingEnabled: true,
	}

	if err := client.Start(ctx, assistant); err != nil {
		c.ledger.Release(c.id)
		c.failStart(gen, fmt.Sprintf("Failed to start the interview: %v", err))
		return utils.E(utils.CodeUnavailable, op, "starting call", err)
	}

	c.mu.Lock()
	if gen != c.generation {
		// superseded while dialing; release the stray client
		c.mu.Unlock()
		_ = client.Stop()
		return nil
	}
	c.client = client
	c.mu.Unlock()

	c.log.Info("call dialing, waiting for provider confirmation")
	return nil
}

func (c *Controller) failStart(gen int, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.phase = models.PhaseIdle
	c.lastErr = msg
}

func (c *Controller) handlers(gen int) voice.Handlers {
	return voice.Handlers{
		OnCallStart: func() { c.onCallStart(gen) },
		OnCallEnd:   func() { c.finalize(gen) },
		OnSpeechStart: func() {
			c.withGen(gen, func() {
				c.aiSpeaking = true
				c.micActive = false
			})
		},
		OnSpeechEnd: func() {
			c.withGen(gen, func() {
				c.aiSpeaking = false
				c.micActive = true
			})
		},
		OnVolume: func(level float64) {
			c.withGen(gen, func() { c.volume = level })
		},
		OnTranscript: func(role models.Role, content string) { c.onTranscript(gen, role, content) },
		OnError:     func(err error) { c.onError(gen, err) },
	}
}

func (c *Controller) withGen(gen int, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	fn()
}

// onCallStart confirms activation. The session never assumes the call is
// live before the provider says so. The greeting is seeded into the
// transcript and spoken exactly once.
func (c *Controller) onCallStart(gen int) {
	c.mu.Lock()
	if gen != c.generation || c.phase != models.PhaseInitializing {
		c.mu.Unlock()
		return
	}
	c.phase = models.PhaseActive

	var client voice.Client
	if !c.greeted {
		c.greeted = true
		c.transcript = append(c.transcript, models.TranscriptTurn{
			Role:      models.RoleInterviewer,
			Content:   feedback.GreetingLine(c.interviewType, c.role),
			Timestamp: c.now().UTC(),
		})
		client = c.client
	}
	c.mu.Unlock()

	c.log.Info("call active")

	if client != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.sayTimeout)
			defer cancel()
			if err := client.Say(ctx, feedback.OpeningUtterance(c.interviewType, c.role), false); err != nil {
				c.log.WithError(err).Warn("failed to trigger opening utterance")
			}
		}()
	}
}

// onTranscript appends a turn in arrival order. Empty deltas are dropped
// before storage.
func (c *Controller) onTranscript(gen int, role models.Role, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	c.withGen(gen, func() {
		c.transcript = append(c.transcript, models.TranscriptTurn{
			Role:      role,
			Content:   content,
			Timestamp: c.now().UTC(),
		})
	})
}

// onError classifies adapter errors by session state: while the session is
// ending the provider emits expected teardown noise, which is logged and
// swallowed (and treated as the call ending). Any other error is surfaced on
// the session without force-closing the call.
func (c *Controller) onError(gen int, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	ending := c.phase == models.PhaseEnding || c.phase == models.PhaseFeedbackPending || c.phase == models.PhaseDone
	if !ending {
		c.lastErr = fmt.Sprintf("Error: %v", err)
	}
	c.mu.Unlock()

	if ending {
		if isBenignTeardown(err) {
			c.log.WithError(err).Debug("suppressed expected provider error during teardown")
		} else {
			c.log.WithError(err).Debug("suppressed provider error during teardown")
		}
		c.finalize(gen)
		return
	}
	c.log.WithError(err).Error("voice provider error")
}

// End requests termination: a graceful closing remark raced against the say
// timeout, then a forced stop. Cleanup and the transition into feedback
// happen on every path.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	switch c.phase {
	case models.PhaseEnding, models.PhaseFeedbackPending, models.PhaseDone:
		c.mu.Unlock()
		return nil
	case models.PhaseIdle:
		c.mu.Unlock()
		return utils.E(utils.CodeConflict, "Controller.End", "no call in progress", nil)
	}
	gen := c.generation
	client := c.client
	c.phase = models.PhaseEnding
	c.mu.Unlock()

	if client == nil {
		c.finalize(gen)
		return nil
	}

	sayDone := make(chan error, 1)
	go func() {
		sayCtx, cancel := context.WithTimeout(ctx, c.sayTimeout)
		defer cancel()
		sayDone <- client.Say(sayCtx, feedback.ClosingRemark, true)
	}()

	select {
	case err := <-sayDone:
		if err != nil {
			c.log.WithError(err).Debug("closing remark failed, forcing stop")
		}
	case <-time.After(c.sayTimeout):
		c.log.Debug("closing remark timed out, forcing stop")
	case <-ctx.Done():
	}

	// always: forced stop, ledger release, feedback transition
	_ = client.Stop()
	c.ledger.Release(c.id)
	c.finalize(gen)
	return nil
}

// finalize is the single exit into feedback generation. Idempotent: a second
// call (say, an unsolicited call-end racing End) neither duplicates the
// closing turn nor dispatches feedback twice.
func (c *Controller) finalize(gen int) {
	c.mu.Lock()
	if gen != c.generation || c.finalized {
		c.mu.Unlock()
		return
	}
	c.finalized = true
	c.micActive = false
	c.aiSpeaking = false
	c.volume = 0

	captured := len(c.transcript)
	if !c.transcript.LastContains(feedback.ClosingTurnMarker) {
		c.transcript = append(c.transcript, models.TranscriptTurn{
			Role:      models.RoleInterviewer,
			Content:   feedback.ClosingTurnContent,
			Timestamp: c.now().UTC(),
		})
	}

	// a near-empty transcript gives the feedback step nothing to work with;
	// backfill the minimal three-turn exchange
	if captured < 2 {
		now := c.now().UTC()
		c.transcript = models.Transcript{
			{Role: models.RoleInterviewer, Content: feedback.GreetingLine(c.interviewType, c.role), Timestamp: now},
			{Role: models.RoleCandidate, Content: "Thank you for the opportunity to interview.", Timestamp: now},
			{Role: models.RoleInterviewer, Content: feedback.ClosingTurnContent, Timestamp: now},
		}
	}

	c.phase = models.PhaseFeedbackPending
	client := c.client
	c.client = nil
	transcript := c.transcript.Clone()
	c.mu.Unlock()

	if client != nil {
		_ = client.Stop()
	}
	c.ledger.Release(c.id)

	c.log.WithField("turns", len(transcript)).Info("call ended, generating feedback")

	go func() {
		c.dispatcher.RequestFeedback(context.Background(), c.id, transcript, c.interviewType, c.role)
		c.markDone(gen)
	}()
}

func (c *Controller) markDone(gen int) {
	c.mu.Lock()
	if gen != c.generation || c.phase != models.PhaseFeedbackPending {
		c.mu.Unlock()
		return
	}
	c.phase = models.PhaseDone
	onDone := c.onDone
	c.mu.Unlock()

	c.log.Info("feedback stored, session done")
	if onDone != nil {
		onDone(c.id)
	}
}

// ToggleMute flips the adapter's mic-enabled flag and mirrors it into the
// session state.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	client := c.client
	active := c.phase == models.PhaseActive
	c.mu.Unlock()

	if client == nil || !active {
		return utils.E(utils.CodeConflict, "Controller.ToggleMute", "no active call", nil)
	}

	wasMuted := client.IsMuted()
	if err := client.SetMuted(!wasMuted); err != nil {
		return utils.E(utils.CodeUnavailable, "Controller.ToggleMute", "setting mute state", err)
	}

	c.mu.Lock()
	c.micActive = wasMuted // it was muted, now the mic is live
	c.mu.Unlock()
	return nil
}

// Teardown releases all session resources. Used when the owning manager
// shuts down; pending callbacks from the adapter are invalidated.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.generation++
	client := c.client
	c.client = nil
	if c.phase != models.PhaseDone {
		c.phase = models.PhaseDone
	}
	c.mu.Unlock()

	if client != nil {
		_ = client.Stop()
	}
	c.ledger.Release(c.id)
}

func (c *Controller) Snapshot() models.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.SessionSnapshot{
		SessionID:     c.id,
		InterviewType: c.interviewType,
		Role:          c.role,
		Phase:         c.phase,
		CallActive:    c.phase == models.PhaseActive || c.phase == models.PhaseEnding,
		MicActive:     c.micActive,
		AISpeaking:    c.aiSpeaking,
		Volume:        c.volume,
		Transcript:    c.transcript.Clone(),
		LastError:     c.lastErr,
	}
}
