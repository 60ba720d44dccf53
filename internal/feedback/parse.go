package feedback

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/intervoxlabs/intervox/internal/models"
)

// extractJSON trims the junk models wrap around JSON: markdown code fences
// and surrounding prose. Returns the outermost object.
func extractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model output")
	}
	return s[start : end+1], nil
}

// ParseFeedback parses model output into a Feedback, requiring all four
// top-level fields and in-range scores. A response that fails any of this is
// discarded whole; callers substitute a static fallback, never a partially
// valid object.
func ParseFeedback(text string) (models.Feedback, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return models.Feedback{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return models.Feedback{}, fmt.Errorf("invalid JSON: %w", err)
	}
	for _, key := range []string{"overallScore", "summary", "categories", "areasOfImprovement"} {
		if _, ok := fields[key]; !ok {
			return models.Feedback{}, fmt.Errorf("missing field %q", key)
		}
	}

	var fb models.Feedback
	if err := json.Unmarshal([]byte(raw), &fb); err != nil {
		return models.Feedback{}, fmt.Errorf("invalid feedback shape: %w", err)
	}
	if err := fb.Validate(); err != nil {
		return models.Feedback{}, err
	}
	return fb, nil
}

// ParseFeedbackLenient is the webhook variant: any JSON object that decodes
// into the feedback shape is accepted, shape gaps and all. The webhook's
// caller is the voice provider, which renders whatever it gets.
func ParseFeedbackLenient(text string) (models.Feedback, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return models.Feedback{}, err
	}
	var fb models.Feedback
	if err := json.Unmarshal([]byte(raw), &fb); err != nil {
		return models.Feedback{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return fb, nil
}
