package handlers

import (
	"encoding/json"
	"errors"

	"GuardianAI/internal/location"
	"GuardianAI/internal/models"
	pkgerrors "GuardianAI/pkg/errors"
	"GuardianAI/pkg/response"
	"GuardianAI/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// locationFix is one browser push. Error carries a failed acquisition
// instead of coordinates.
type locationFix struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Error    string   `json:"error,omitempty"`
}

var errMissingCoordinates = pkgerrors.Sentinel(pkgerrors.CodeInvalidFix, "lat and lng are required")

func (f locationFix) location() (models.Location, error) {
	if f.Lat == nil || f.Lng == nil {
		return models.Location{}, errMissingCoordinates
	}
	return models.Location{Lat: *f.Lat, Lng: *f.Lng, Accuracy: f.Accuracy}, nil
}

func (h *Handlers) handleGetLocation(c *gin.Context) {
	response.Success(c, "success", h.Watcher.Latest())
}

func (h *Handlers) handleUpdateLocation(c *gin.Context) {
	var fix locationFix
	if err := c.ShouldBindJSON(&fix); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if fix.Error != "" {
		h.Watcher.Report(errors.New(fix.Error))
		response.Success(c, "error reported", nil)
		return
	}
	loc, err := fix.location()
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.Watcher.UpdateFrom(location.SourceHTTP, loc); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", h.Watcher.Latest())
}

// handleLocationStream upgrades to a websocket that takes one fix per frame
// and pushes every accepted fix back.
func (h *Handlers) handleLocationStream(c *gin.Context) {
	session, err := websocket.Upgrade(c.Writer, c.Request, h.WebSocket)
	if err != nil {
		h.Logger.Warn("location stream upgrade failed", zap.Error(err))
		return
	}
	lg := h.Logger.With(zap.String("session", session.ID))

	fixes, unsubscribe := h.Watcher.Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case <-session.Done():
				return
			case loc, ok := <-fixes:
				if !ok {
					session.Close()
					return
				}
				session.SendJSON(loc)
			}
		}
	}()

	err = session.Run(c.Request.Context(), func(msg []byte) {
		var fix locationFix
		if err := json.Unmarshal(msg, &fix); err != nil {
			session.SendJSON(gin.H{"error": "malformed frame"})
			return
		}
		if fix.Error != "" {
			h.Watcher.Report(errors.New(fix.Error))
			return
		}
		loc, err := fix.location()
		if err == nil {
			err = h.Watcher.UpdateFrom(location.SourceStream, loc)
		}
		if err != nil {
			session.SendJSON(gin.H{"error": err.Error()})
		}
	})
	if err != nil {
		lg.Debug("location stream closed", zap.Error(err))
	}
}
