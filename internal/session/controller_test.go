package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervoxlabs/intervox/internal/feedback"
	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/providers/voice"
)

// fakeClient scripts the voice provider for one call.
type fakeClient struct {
	mu       sync.Mutex
	started  int
	stopped  int
	says     []string
	muted    bool
	startErr error
	sayErr   error

	// when set, Say signals sayStarted and blocks until sayRelease closes
	sayStarted chan struct{}
	sayRelease chan struct{}
}

func (f *fakeClient) Start(_ context.Context, _ voice.Assistant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return f.startErr
}

func (f *fakeClient) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakeClient) Say(ctx context.Context, text string, _ bool) error {
	f.mu.Lock()
	f.says = append(f.says, text)
	started := f.sayStarted
	release := f.sayRelease
	err := f.sayErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeClient) SetMuted(m bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = m
	return nil
}

func (f *fakeClient) IsMuted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *fakeClient) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeDispatcher struct {
	mu         sync.Mutex
	calls      int
	transcript models.Transcript
	signal     chan struct{}
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{signal: make(chan struct{}, 4)}
}

func (d *fakeDispatcher) RequestFeedback(_ context.Context, _ string, tr models.Transcript, _, _ string) {
	d.mu.Lock()
	d.calls++
	d.transcript = tr
	d.mu.Unlock()
	d.signal <- struct{}{}
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDispatcher) wait(t *testing.T) models.Transcript {
	t.Helper()
	select {
	case <-d.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("feedback was never dispatched")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transcript
}

type testRig struct {
	ctrl       *Controller
	client     *fakeClient
	dispatcher *fakeDispatcher
	ledger     *voice.Ledger
	handlers   voice.Handlers
	clients    int
}

func newRig(t *testing.T, client *fakeClient) *testRig {
	t.Helper()
	rig := &testRig{client: client, dispatcher: newFakeDispatcher(), ledger: voice.NewLedger()}

	factory := func(h voice.Handlers) (voice.Client, error) {
		rig.handlers = h
		rig.clients++
		return rig.client, nil
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	rig.ctrl = NewController("test-session", "technical", "full-stack", Deps{
		Factory:    factory,
		Ledger:     rig.ledger,
		Dispatcher: rig.dispatcher,
		Logger:     log,
		SayTimeout: 100 * time.Millisecond,
	})
	return rig
}

func (r *testRig) startActive(t *testing.T) {
	t.Helper()
	require.NoError(t, r.ctrl.Start(context.Background()))
	r.handlers.OnCallStart()
	require.Equal(t, models.PhaseActive, r.ctrl.Snapshot().Phase)
}

func TestStartWaitsForProviderConfirmation(t *testing.T) {
	rig := newRig(t, &fakeClient{})

	require.NoError(t, rig.ctrl.Start(context.Background()))
	snap := rig.ctrl.Snapshot()
	assert.Equal(t, models.PhaseInitializing, snap.Phase)
	assert.False(t, snap.CallActive, "no optimistic activation before call-start")

	rig.handlers.OnCallStart()
	snap = rig.ctrl.Snapshot()
	assert.Equal(t, models.PhaseActive, snap.Phase)
	assert.True(t, snap.CallActive)
}

func TestStartSeedsGreeting(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)

	snap := rig.ctrl.Snapshot()
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, models.RoleInterviewer, snap.Transcript[0].Role)
	assert.Contains(t, snap.Transcript[0].Content, "technical interview for the Full Stack position")
}

func TestDoubleStartIsNoOp(t *testing.T) {
	rig := newRig(t, &fakeClient{})

	require.NoError(t, rig.ctrl.Start(context.Background()))
	require.NoError(t, rig.ctrl.Start(context.Background()), "second start must be a silent no-op")
	assert.Equal(t, 1, rig.clients, "only one adapter instance may be created")
}

func TestStartFailureRecordsError(t *testing.T) {
	rig := newRig(t, &fakeClient{startErr: errors.New("dial refused")})

	err := rig.ctrl.Start(context.Background())
	require.Error(t, err)

	snap := rig.ctrl.Snapshot()
	assert.Equal(t, models.PhaseIdle, snap.Phase)
	assert.False(t, snap.CallActive)
	assert.Contains(t, snap.LastError, "Failed to start the interview")
	assert.Equal(t, 1, rig.client.stopCount(), "partially-constructed adapter must be released")
}

func TestStartSweepsOrphanedHandles(t *testing.T) {
	rig := newRig(t, &fakeClient{})

	released := false
	rig.ledger.Register("stale-session", func() { released = true })

	require.NoError(t, rig.ctrl.Start(context.Background()))
	assert.True(t, released, "orphaned handle from a prior session must be released")
}

func TestTranscriptAppendsInOrderAndDropsEmpty(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)

	rig.handlers.OnTranscript(models.RoleInterviewer, "Tell me about yourself")
	rig.handlers.OnTranscript(models.RoleCandidate, "")
	rig.handlers.OnTranscript(models.RoleCandidate, "   ")
	rig.handlers.OnTranscript(models.RoleCandidate, "I have 5 years of experience...")

	tr := rig.ctrl.Snapshot().Transcript
	require.Len(t, tr, 3) // greeting + two non-empty deltas
	assert.Equal(t, "Tell me about yourself", tr[1].Content)
	assert.Equal(t, "I have 5 years of experience...", tr[2].Content)
}

func TestSpeechEventsDriveMicState(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)

	rig.handlers.OnSpeechStart()
	snap := rig.ctrl.Snapshot()
	assert.True(t, snap.AISpeaking)
	assert.False(t, snap.MicActive)

	rig.handlers.OnSpeechEnd()
	snap = rig.ctrl.Snapshot()
	assert.False(t, snap.AISpeaking)
	assert.True(t, snap.MicActive)
}

func TestEndGracefulPath(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)
	rig.handlers.OnTranscript(models.RoleCandidate, "my answer")

	require.NoError(t, rig.ctrl.End(context.Background()))

	tr := rig.dispatcher.wait(t)
	assert.Equal(t, 1, rig.dispatcher.callCount())
	assert.True(t, tr.LastContains(feedback.ClosingTurnMarker), "closing turn must be appended")
	assert.GreaterOrEqual(t, rig.client.stopCount(), 1)

	require.Eventually(t, func() bool {
		return rig.ctrl.Snapshot().Phase == models.PhaseDone
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEndSayTimeoutStillReachesFeedback(t *testing.T) {
	client := &fakeClient{sayRelease: make(chan struct{})} // Say hangs past the budget
	defer close(client.sayRelease)

	rig := newRig(t, client)
	rig.startActive(t)

	start := time.Now()
	require.NoError(t, rig.ctrl.End(context.Background()))
	assert.Less(t, time.Since(start), time.Second, "end must settle at the say timeout")

	rig.dispatcher.wait(t)
	assert.Equal(t, 1, rig.dispatcher.callCount())
	assert.GreaterOrEqual(t, rig.client.stopCount(), 1, "forced stop after timeout")
}

func TestFinalizeIsIdempotent(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)
	rig.handlers.OnTranscript(models.RoleCandidate, "answer one")

	rig.handlers.OnCallEnd()
	rig.handlers.OnCallEnd()

	tr := rig.dispatcher.wait(t)
	assert.Equal(t, 1, rig.dispatcher.callCount(), "feedback must be dispatched exactly once")

	closings := 0
	for _, turn := range tr {
		if turn.Role == models.RoleInterviewer && turn.Content == feedback.ClosingTurnContent {
			closings++
		}
	}
	assert.Equal(t, 1, closings, "closing turn must not be duplicated")
}

func TestBackfillMinimalTranscript(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	require.NoError(t, rig.ctrl.Start(context.Background()))

	// call ends before the greeting or any delta is captured
	rig.handlers.OnCallEnd()

	tr := rig.dispatcher.wait(t)
	require.GreaterOrEqual(t, len(tr), 3, "feedback input must never be near-empty")
	assert.Equal(t, models.RoleInterviewer, tr[0].Role)
	assert.Equal(t, models.RoleCandidate, tr[1].Role)
	assert.True(t, tr.LastContains(feedback.ClosingTurnMarker))
}

func TestErrorSurfacedWhileActive(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)

	rig.handlers.OnError(errors.New("Meeting has ended"))

	snap := rig.ctrl.Snapshot()
	assert.Contains(t, snap.LastError, "Meeting has ended",
		"errors during an active call surface even when the text matches a benign pattern")
	assert.Equal(t, models.PhaseActive, snap.Phase, "a surfaced error does not force-close the call")
}

func TestErrorSuppressedWhileEnding(t *testing.T) {
	client := &fakeClient{
		sayStarted: make(chan struct{}, 1),
		sayRelease: make(chan struct{}),
	}
	rig := newRig(t, client)
	rig.startActive(t)

	endDone := make(chan error, 1)
	go func() { endDone <- rig.ctrl.End(context.Background()) }()

	<-client.sayStarted // the session is now ending
	rig.handlers.OnError(errors.New("Meeting has ended"))

	close(client.sayRelease)
	require.NoError(t, <-endDone)

	rig.dispatcher.wait(t)
	assert.Equal(t, 1, rig.dispatcher.callCount())
	assert.Empty(t, rig.ctrl.Snapshot().LastError, "teardown errors must not surface")
}

func TestToggleMute(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)
	rig.handlers.OnSpeechEnd() // mic live

	require.NoError(t, rig.ctrl.ToggleMute())
	assert.True(t, rig.client.IsMuted())
	assert.False(t, rig.ctrl.Snapshot().MicActive)

	require.NoError(t, rig.ctrl.ToggleMute())
	assert.False(t, rig.client.IsMuted())
	assert.True(t, rig.ctrl.Snapshot().MicActive)
}

func TestToggleMuteWithoutActiveCall(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	assert.Error(t, rig.ctrl.ToggleMute())
}

func TestEndWithoutCall(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	assert.Error(t, rig.ctrl.End(context.Background()), "ending an idle session is a conflict")
}

func TestDispatcherReceivesClone(t *testing.T) {
	rig := newRig(t, &fakeClient{})
	rig.startActive(t)
	rig.handlers.OnTranscript(models.RoleCandidate, "original answer")

	require.NoError(t, rig.ctrl.End(context.Background()))
	tr := rig.dispatcher.wait(t)

	tr[0].Content = "mutated"
	assert.NotEqual(t, "mutated", rig.ctrl.Snapshot().Transcript[0].Content,
		"the dispatcher's transcript must be a copy")
}
