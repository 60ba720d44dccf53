package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intervoxlabs/intervox/internal/feedback"
	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/session"
	"github.com/intervoxlabs/intervox/internal/store"
	"github.com/intervoxlabs/intervox/internal/utils"
)

type SessionHandler struct {
	mgr     *session.Manager
	records store.FeedbackStore
}

func NewSessionHandler(mgr *session.Manager, records store.FeedbackStore) *SessionHandler {
	return &SessionHandler{mgr: mgr, records: records}
}

type StartSessionRequest struct {
	InterviewType string `json:"interviewType" binding:"required"` // technical|behavioral|mixed
	Role          string `json:"role" binding:"required"`          // role slug, ex: full-stack
}

func (h *SessionHandler) Start(c *gin.Context) {
	const op = "SessionHandler.Start"

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	ctrl, err := h.mgr.Start(c.Request.Context(), req.InterviewType, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *SessionHandler) Get(c *gin.Context) {
	ctrl, err := h.mgr.Get(c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *SessionHandler) End(c *gin.Context) {
	ctrl, err := h.mgr.Get(c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := ctrl.End(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *SessionHandler) ToggleMute(c *gin.Context) {
	ctrl, err := h.mgr.Get(c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := ctrl.ToggleMute(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

type FeedbackResponse struct {
	models.FeedbackRecord
	Source store.Source `json:"source"`
}

// Feedback handles GET /api/session/:session_id/feedback. Consume-once: a
// fresh record is removed on read; a missing one falls back to the
// last-known-good archive, then to the generic payload, in that order.
func (h *SessionHandler) Feedback(c *gin.Context) {
	sessionID := c.Param("session_id")

	rec, source, err := h.records.Consume(c.Request.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			writeError(c, utils.E(utils.CodeInternal, "SessionHandler.Feedback", "reading feedback record", err))
			return
		}
		c.JSON(http.StatusOK, FeedbackResponse{
			FeedbackRecord: models.FeedbackRecord{Feedback: feedback.ClientFallback()},
			Source:         "fallback",
		})
		return
	}

	c.JSON(http.StatusOK, FeedbackResponse{FeedbackRecord: rec, Source: source})
}
