package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// ParseRole maps wire values onto the two speaker roles. The voice provider
// emits "assistant"/"user"; anything that is not the interviewer is treated
// as the candidate.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assistant", "interviewer":
		return RoleInterviewer
	default:
		return RoleCandidate
	}
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// Label is the speaker prefix used when rendering transcripts into prompts.
func (r Role) Label() string {
	if r == RoleInterviewer {
		return "Interviewer"
	}
	return "Candidate"
}

type TranscriptTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Transcript is an ordered sequence of turns, append-only in capture order.
type Transcript []TranscriptTurn

func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// LastContains reports whether the most recent turn already contains s.
func (t Transcript) LastContains(s string) bool {
	if len(t) == 0 {
		return false
	}
	return strings.Contains(t[len(t)-1].Content, s)
}

// LastCandidate returns the most recent candidate turn, if any.
func (t Transcript) LastCandidate() (TranscriptTurn, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleCandidate {
			return t[i], true
		}
	}
	return TranscriptTurn{}, false
}

// Tail returns the last n turns (the whole transcript when it is shorter).
func (t Transcript) Tail(n int) Transcript {
	if n <= 0 || len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}

// Lines renders the transcript as "Interviewer: .../Candidate: ..." lines for
// model prompts.
func (t Transcript) Lines() string {
	var b strings.Builder
	for i, turn := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(turn.Role.Label())
		b.WriteString(": ")
		b.WriteString(turn.Content)
	}
	return b.String()
}
