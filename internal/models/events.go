package models

// EventType is the closed set of call lifecycle events the voice provider
// pushes to the webhook. Unknown tags are acknowledged without action.
type EventType string

const (
	EventCallCreated       EventType = "call.created"
	EventCallStarted       EventType = "call.started"
	EventTranscriptUpdated EventType = "transcript.updated"
	EventCallEnded         EventType = "call.ended"
	EventUnknown           EventType = "unknown"
)

func ParseEventType(s string) EventType {
	switch EventType(s) {
	case EventCallCreated, EventCallStarted, EventTranscriptUpdated, EventCallEnded:
		return EventType(s)
	default:
		return EventUnknown
	}
}

// CallParams carries the interview parameters the provider echoes back on
// every webhook event.
type CallParams struct {
	InterviewType string `json:"interviewType"`
	Role          string `json:"role"`
}

// WithDefaults fills the defaults the provider sometimes omits.
func (p CallParams) WithDefaults() CallParams {
	if p.InterviewType == "" {
		p.InterviewType = "technical"
	}
	if p.Role == "" {
		p.Role = "developer"
	}
	return p
}

// WebhookEvent is the decoded webhook payload.
type WebhookEvent struct {
	Event      string     `json:"event"`
	CallID     string     `json:"call_id"`
	Params     CallParams `json:"params"`
	Transcript Transcript `json:"transcript"`
}

func (e WebhookEvent) Type() EventType { return ParseEventType(e.Event) }
