package feedback

import (
	"strings"
	"testing"
)

const goodJSON = `{
  "overallScore": 78,
  "summary": "Strong candidate with good fundamentals.",
  "categories": [
    {"name": "Communication Skills", "score": 80, "feedback": "Clear and structured."},
    {"name": "Technical Knowledge", "score": 75, "feedback": "Solid."},
    {"name": "Problem Solving", "score": 74, "feedback": "Methodical."},
    {"name": "Cultural Fit", "score": 82, "feedback": "Collaborative."}
  ],
  "areasOfImprovement": ["More depth on system design"]
}`

func TestParseFeedback(t *testing.T) {
	fb, err := ParseFeedback(goodJSON)
	if err != nil {
		t.Fatalf("ParseFeedback: %v", err)
	}
	if fb.OverallScore != 78 {
		t.Errorf("OverallScore = %d, want 78", fb.OverallScore)
	}
	if len(fb.Categories) != 4 {
		t.Errorf("len(Categories) = %d, want 4", len(fb.Categories))
	}
}

func TestParseFeedbackCodeFences(t *testing.T) {
	wrapped := "Here is the evaluation:\n```json\n" + goodJSON + "\n```\nLet me know if you need more."
	fb, err := ParseFeedback(wrapped)
	if err != nil {
		t.Fatalf("ParseFeedback with fences: %v", err)
	}
	if fb.Summary == "" {
		t.Error("summary lost while unwrapping fences")
	}
}

func TestParseFeedbackRejects(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"not json", "The candidate did well overall, I'd score them 70."},
		{"empty", ""},
		{"missing overallScore", `{"summary":"s","categories":[{"name":"n","score":1,"feedback":"f"}],"areasOfImprovement":["a"]}`},
		{"missing summary", `{"overallScore":70,"categories":[{"name":"n","score":1,"feedback":"f"}],"areasOfImprovement":["a"]}`},
		{"missing categories", `{"overallScore":70,"summary":"s","areasOfImprovement":["a"]}`},
		{"missing areas", `{"overallScore":70,"summary":"s","categories":[{"name":"n","score":1,"feedback":"f"}]}`},
		{"score out of range", strings.Replace(goodJSON, `"score": 80`, `"score": 180`, 1)},
		{"truncated", goodJSON[:len(goodJSON)/2]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseFeedback(tc.text); err == nil {
				t.Errorf("ParseFeedback accepted %s", tc.name)
			}
		})
	}
}

func TestParseFeedbackLenient(t *testing.T) {
	// lenient accepts a shape the strict parser rejects
	fb, err := ParseFeedbackLenient(`{"overallScore": 70, "summary": "ok"}`)
	if err != nil {
		t.Fatalf("ParseFeedbackLenient: %v", err)
	}
	if fb.OverallScore != 70 {
		t.Errorf("OverallScore = %d, want 70", fb.OverallScore)
	}

	if _, err := ParseFeedbackLenient("no json here"); err == nil {
		t.Error("lenient parser accepted prose")
	}
}

func TestFallbacksAreSchemaValid(t *testing.T) {
	fallbacks := map[string]func() error{
		"client":  func() error { return ClientFallback().Validate() },
		"parse":   func() error { return ParseFallback("technical", "full-stack").Validate() },
		"basic":   func() error { return BasicFallback().Validate() },
		"webhook": func() error { return WebhookFallback().Validate() },
	}
	for name, validate := range fallbacks {
		if err := validate(); err != nil {
			t.Errorf("%s fallback is not schema-valid: %v", name, err)
		}
	}
}

func TestParseFallbackParameterized(t *testing.T) {
	fb := ParseFallback("behavioral", "full-stack")
	if !strings.Contains(fb.Summary, "behavioral") || !strings.Contains(fb.Summary, "full stack") {
		t.Errorf("summary not parameterized: %q", fb.Summary)
	}
}
