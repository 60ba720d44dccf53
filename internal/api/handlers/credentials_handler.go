package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intervoxlabs/intervox/config"
)

type CredentialsHandler struct {
	cfg *config.Config
}

func NewCredentialsHandler(cfg *config.Config) *CredentialsHandler {
	return &CredentialsHandler{cfg: cfg}
}

// Get handles GET /api/vapi-credentials. Credentials come from startup
// configuration; missing ones fail config.Load, so by the time this handler
// runs there is always something to return.
func (h *CredentialsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"apiKey":      h.cfg.VoiceAPIKey,
		"assistantId": h.cfg.VoiceAssistantID,
	})
}
