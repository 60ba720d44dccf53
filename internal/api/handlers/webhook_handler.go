package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/intervoxlabs/intervox/internal/feedback"
	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/utils"
)

// WebhookHandler answers the voice provider's asynchronous call lifecycle
// events. Generation branches never answer 5xx; the provider always gets a
// usable line or feedback payload.
type WebhookHandler struct {
	gen *feedback.Generator
	log *logrus.Logger
}

func NewWebhookHandler(gen *feedback.Generator, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{gen: gen, log: log}
}

// HandleCall handles POST /api/handle-call.
func (h *WebhookHandler) HandleCall(c *gin.Context) {
	const op = "WebhookHandler.HandleCall"

	var ev models.WebhookEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "invalid webhook body", err))
		return
	}

	h.log.WithFields(logrus.Fields{
		"event":   ev.Event,
		"call_id": ev.CallID,
	}).Info("received webhook event")

	ctx := c.Request.Context()

	switch ev.Type() {
	case models.EventCallCreated, models.EventCallStarted:
		c.JSON(http.StatusOK, gin.H{"response": h.gen.OpeningLine(ctx, ev.Params)})
	case models.EventTranscriptUpdated:
		c.JSON(http.StatusOK, gin.H{"response": h.gen.FollowUpLine(ctx, ev.Transcript, ev.Params)})
	case models.EventCallEnded:
		c.JSON(http.StatusOK, gin.H{"feedback": h.gen.WebhookFeedback(ctx, ev.Transcript, ev.Params)})
	case models.EventUnknown:
		c.JSON(http.StatusOK, gin.H{"message": "Event not handled"})
	}
}
