package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleEvents streams status, sos, location, report and chat events.
func (h *Handlers) handleEvents(c *gin.Context) {
	h.Hub.Serve(c, uuid.NewString())
}
