package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/store"
)

// Requester converts a finished session's transcript into a stored feedback
// record. It never raises an error to the session controller: any transport,
// status, timeout, or schema failure stores the static client fallback
// instead. Exactly one record is stored per call.
type Requester struct {
	endpoint string
	client   *http.Client
	store    store.FeedbackStore
	log      *logrus.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewRequester(endpoint string, st store.FeedbackStore, log *logrus.Logger, timeout time.Duration) *Requester {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Requester{
		endpoint: endpoint,
		client:   &http.Client{},
		store:    st,
		log:      log,
		timeout:  timeout,
		now:      time.Now,
	}
}

type generateRequest struct {
	Transcript    []wireTurn `json:"transcript"`
	InterviewType string     `json:"interviewType"`
	Role          string     `json:"role"`
}

type wireTurn struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// RequestFeedback fetches feedback for the transcript and stores the result
// under sessionID. The transcript is not mutated.
func (r *Requester) RequestFeedback(ctx context.Context, sessionID string, transcript models.Transcript, interviewType, role string) {
	fb, err := r.fetch(ctx, transcript, interviewType, role)
	if err != nil {
		r.log.WithError(err).WithField("session_id", sessionID).Warn("feedback fetch failed, storing fallback")
		fb = ClientFallback()
	}

	rec := models.FeedbackRecord{
		Feedback:      fb,
		InterviewType: interviewType,
		Role:          role,
		Date:          r.now().UTC(),
		Transcript:    transcript,
	}
	if err := r.store.Put(ctx, sessionID, rec); err != nil {
		r.log.WithError(err).WithField("session_id", sessionID).Error("failed to store feedback record")
	}
}

func (r *Requester) fetch(ctx context.Context, transcript models.Transcript, interviewType, role string) (models.Feedback, error) {
	payload := generateRequest{
		Transcript:    make([]wireTurn, 0, len(transcript)),
		InterviewType: interviewType,
		Role:          role,
	}
	for _, turn := range transcript {
		payload.Transcript = append(payload.Transcript, wireTurn{Role: turn.Role, Content: turn.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.Feedback{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Feedback{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.Feedback{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Feedback{}, fmt.Errorf("feedback endpoint returned status %d", resp.StatusCode)
	}

	var fb models.Feedback
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		return models.Feedback{}, fmt.Errorf("decoding feedback response: %w", err)
	}
	if err := fb.Validate(); err != nil {
		return models.Feedback{}, fmt.Errorf("feedback response failed validation: %w", err)
	}
	return fb, nil
}
