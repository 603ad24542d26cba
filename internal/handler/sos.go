package handlers

import (
	"GuardianAI/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) handleGetSOS(c *gin.Context) {
	response.Success(c, "success", gin.H{"sos": h.Trigger.Snapshot(), "alert": h.Trigger.Event()})
}

func (h *Handlers) handlePressSOS(c *gin.Context) {
	response.Success(c, "success", h.Trigger.Press())
}

func (h *Handlers) handleCancelSOS(c *gin.Context) {
	response.Success(c, "success", h.Trigger.Cancel())
}
