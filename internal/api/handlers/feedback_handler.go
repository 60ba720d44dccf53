package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intervoxlabs/intervox/internal/feedback"
	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/utils"
)

type FeedbackHandler struct {
	gen *feedback.Generator
}

func NewFeedbackHandler(gen *feedback.Generator) *FeedbackHandler {
	return &FeedbackHandler{gen: gen}
}

type GenerateFeedbackRequest struct {
	Transcript    models.Transcript `json:"transcript"`
	InterviewType string            `json:"interviewType"`
	Role          string            `json:"role"`
}

// Generate handles POST /api/generate-feedback. Malformed or empty input is
// the only rejection; generation failures of every kind answer 200 with a
// fallback payload.
func (h *FeedbackHandler) Generate(c *gin.Context) {
	const op = "FeedbackHandler.Generate"

	var req GenerateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if len(req.Transcript) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "no transcript provided", nil))
		return
	}

	fb := h.gen.Feedback(c.Request.Context(), req.Transcript, req.InterviewType, req.Role)
	c.JSON(http.StatusOK, fb)
}
