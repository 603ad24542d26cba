package handlers

import (
	"GuardianAI/internal/models"
	"GuardianAI/pkg/errors"
	"GuardianAI/pkg/response"

	"github.com/gin-gonic/gin"
)

var errNoLocation = errors.Sentinel(errors.CodeMissingLocation, "current location unknown")

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handlers) handleGetChat(c *gin.Context) {
	response.Success(c, "success", h.Chat.Messages())
}

func (h *Handlers) handleSendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	reply, err := h.Chat.Send(c.Request.Context(), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", reply)
}

// routeRequest may carry its own point; otherwise the latest fix is used.
type routeRequest struct {
	Origin      string   `json:"origin" binding:"required"`
	Destination string   `json:"destination" binding:"required"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

func (h *Handlers) handleAnalyzeRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "origin and destination are required", nil)
		return
	}
	var lat, lng float64
	switch {
	case req.Lat != nil && req.Lng != nil:
		if err := (models.Location{Lat: *req.Lat, Lng: *req.Lng}).Validate(); err != nil {
			response.Error(c, errors.WrapCode(err, errors.CodeInvalidFix, "invalid location"))
			return
		}
		lat, lng = *req.Lat, *req.Lng
	default:
		loc := h.Watcher.Latest()
		if loc == nil {
			response.Error(c, errNoLocation)
			return
		}
		lat, lng = loc.Lat, loc.Lng
	}
	response.Success(c, "success", h.Routes.GetRouteSafetyAnalysis(c.Request.Context(), req.Origin, req.Destination, lat, lng))
}
