package models

import (
	"fmt"
	"time"
)

type FeedbackCategory struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Feedback is the structured result of evaluating an interview transcript.
// It is the shared contract between the generation endpoint, the webhook
// handler, and the display surface.
type Feedback struct {
	OverallScore       int                `json:"overallScore"`
	Summary            string             `json:"summary"`
	Categories         []FeedbackCategory `json:"categories"`
	AreasOfImprovement []string           `json:"areasOfImprovement"`
}

func (f Feedback) Validate() error {
	if f.OverallScore < 0 || f.OverallScore > 100 {
		return fmt.Errorf("overallScore %d out of range", f.OverallScore)
	}
	if f.Summary == "" {
		return fmt.Errorf("summary is empty")
	}
	if len(f.Categories) == 0 {
		return fmt.Errorf("categories is empty")
	}
	for _, c := range f.Categories {
		if c.Score < 0 || c.Score > 100 {
			return fmt.Errorf("category %q score %d out of range", c.Name, c.Score)
		}
	}
	if len(f.AreasOfImprovement) == 0 {
		return fmt.Errorf("areasOfImprovement is empty")
	}
	return nil
}

// FeedbackRecord is the stored per-session result: the feedback plus the
// metadata the display surface needs.
type FeedbackRecord struct {
	Feedback
	InterviewType string     `json:"interviewType"`
	Role          string     `json:"role"`
	Date          time.Time  `json:"date"`
	Transcript    Transcript `json:"transcript,omitempty"`
}
