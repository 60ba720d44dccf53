package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervoxlabs/intervox/internal/feedback"
	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/providers/voice"
	"github.com/intervoxlabs/intervox/internal/session"
	"github.com/intervoxlabs/intervox/internal/store"
)

// confirmingClient acks Start by firing OnCallStart, like a live provider.
type confirmingClient struct {
	handlers voice.Handlers
	muted    bool
}

func (c *confirmingClient) Start(_ context.Context, _ voice.Assistant) error {
	go c.handlers.OnCallStart()
	return nil
}
func (c *confirmingClient) Stop() error                                 { return nil }
func (c *confirmingClient) Say(_ context.Context, _ string, _ bool) error { return nil }
func (c *confirmingClient) SetMuted(m bool) error                       { c.muted = m; return nil }
func (c *confirmingClient) IsMuted() bool                               { return c.muted }

type noopDispatcher struct{}

func (noopDispatcher) RequestFeedback(_ context.Context, _ string, _ models.Transcript, _, _ string) {
}

func sessionRouter(records store.FeedbackStore) (*gin.Engine, *session.Manager) {
	gin.SetMode(gin.TestMode)

	mgr := session.NewManager(session.Deps{
		Factory: func(h voice.Handlers) (voice.Client, error) {
			return &confirmingClient{handlers: h}, nil
		},
		Ledger:     voice.NewLedger(),
		Dispatcher: noopDispatcher{},
		Logger:     quietLog(),
		SayTimeout: 100 * time.Millisecond,
	})

	r := gin.New()
	h := NewSessionHandler(mgr, records)
	r.POST("/api/session/start", h.Start)
	r.GET("/api/session/:session_id", h.Get)
	r.POST("/api/session/:session_id/end", h.End)
	r.POST("/api/session/:session_id/mute", h.ToggleMute)
	r.GET("/api/session/:session_id/feedback", h.Feedback)
	return r, mgr
}

func startSession(t *testing.T, r *gin.Engine) models.SessionSnapshot {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/session/start",
		`{"interviewType": "technical", "role": "full-stack"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap models.SessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.SessionID)
	return snap
}

func TestSessionStartAndGet(t *testing.T) {
	r, mgr := sessionRouter(store.NewMemoryStore())
	defer mgr.Shutdown()

	snap := startSession(t, r)
	assert.Equal(t, "technical", snap.InterviewType)
	assert.Equal(t, "full-stack", snap.Role)

	require.Eventually(t, func() bool {
		w := doJSON(t, r, http.MethodGet, "/api/session/"+snap.SessionID, "")
		if w.Code != http.StatusOK {
			return false
		}
		var got models.SessionSnapshot
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			return false
		}
		return got.Phase == models.PhaseActive && got.CallActive
	}, time.Second, 10*time.Millisecond, "session must activate once the provider confirms")
}

func TestSessionStartValidation(t *testing.T) {
	r, mgr := sessionRouter(store.NewMemoryStore())
	defer mgr.Shutdown()

	w := doJSON(t, r, http.MethodPost, "/api/session/start", `{"interviewType": "technical"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionNotFound(t *testing.T) {
	r, mgr := sessionRouter(store.NewMemoryStore())
	defer mgr.Shutdown()

	w := doJSON(t, r, http.MethodGet, "/api/session/no-such-id", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionEnd(t *testing.T) {
	r, mgr := sessionRouter(store.NewMemoryStore())
	defer mgr.Shutdown()

	snap := startSession(t, r)
	require.Eventually(t, func() bool {
		ctrl, err := mgr.Get(snap.SessionID)
		return err == nil && ctrl.Snapshot().Phase == models.PhaseActive
	}, time.Second, 10*time.Millisecond)

	w := doJSON(t, r, http.MethodPost, "/api/session/"+snap.SessionID+"/end", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got models.SessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEqual(t, models.PhaseActive, got.Phase)
	assert.True(t, got.Transcript.LastContains(feedback.ClosingTurnMarker))
}

func TestSessionMuteToggle(t *testing.T) {
	r, mgr := sessionRouter(store.NewMemoryStore())
	defer mgr.Shutdown()

	snap := startSession(t, r)
	require.Eventually(t, func() bool {
		ctrl, err := mgr.Get(snap.SessionID)
		return err == nil && ctrl.Snapshot().Phase == models.PhaseActive
	}, time.Second, 10*time.Millisecond)

	w := doJSON(t, r, http.MethodPost, "/api/session/"+snap.SessionID+"/mute", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got models.SessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.MicActive)
}

func TestSessionFeedbackConsumeOnce(t *testing.T) {
	records := store.NewMemoryStore()
	r, mgr := sessionRouter(records)
	defer mgr.Shutdown()

	rec := models.FeedbackRecord{
		Feedback:      feedback.ClientFallback(),
		InterviewType: "technical",
		Role:          "backend",
		Date:          time.Now().UTC(),
	}
	rec.OverallScore = 91
	require.NoError(t, records.Put(context.Background(), "sess-1", rec))

	w := doJSON(t, r, http.MethodGet, "/api/session/sess-1/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)

	var first FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, store.SourceFresh, first.Source)
	assert.Equal(t, 91, first.OverallScore)

	// second read: the fresh record was consumed, the archive answers
	w = doJSON(t, r, http.MethodGet, "/api/session/sess-1/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)

	var second FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, store.SourceArchive, second.Source)
	assert.Equal(t, 91, second.OverallScore)
}

func TestSessionFeedbackFallbackWhenEmpty(t *testing.T) {
	r, mgr := sessionRouter(store.NewMemoryStore())
	defer mgr.Shutdown()

	w := doJSON(t, r, http.MethodGet, "/api/session/unknown/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, store.Source("fallback"), resp.Source)
	assert.Equal(t, feedback.ClientFallback().OverallScore, resp.OverallScore)
	require.NoError(t, resp.Validate())
}
