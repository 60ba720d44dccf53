package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/intervoxlabs/intervox/internal/api/handlers"
)

type Deps struct {
	Feedback    *handlers.FeedbackHandler
	Webhook     *handlers.WebhookHandler
	Credentials *handlers.CredentialsHandler
	Session     *handlers.SessionHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	api.POST("/generate-feedback", d.Feedback.Generate)
	api.POST("/handle-call", d.Webhook.HandleCall)
	api.GET("/vapi-credentials", d.Credentials.Get)

	api.POST("/session/start", d.Session.Start)
	api.GET("/session/:session_id", d.Session.Get)
	api.POST("/session/:session_id/end", d.Session.End)
	api.POST("/session/:session_id/mute", d.Session.ToggleMute)
	api.GET("/session/:session_id/feedback", d.Session.Feedback)
}
