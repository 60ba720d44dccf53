package models

// Phase is the lifecycle state of one interview session. Done is terminal;
// a new session gets a fresh controller.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseInitializing    Phase = "initializing"
	PhaseActive          Phase = "active"
	PhaseEnding          Phase = "ending"
	PhaseFeedbackPending Phase = "feedback_pending"
	PhaseDone            Phase = "done"
)

// SessionSnapshot is the externally visible view of a live session.
type SessionSnapshot struct {
	SessionID     string     `json:"session_id"`
	InterviewType string     `json:"interview_type"`
	Role          string     `json:"role"`
	Phase         Phase      `json:"phase"`
	CallActive    bool       `json:"call_active"`
	MicActive     bool       `json:"mic_active"`
	AISpeaking    bool       `json:"ai_speaking"`
	Volume        float64    `json:"volume"`
	Transcript    Transcript `json:"transcript"`
	LastError     string     `json:"last_error,omitempty"`
}
