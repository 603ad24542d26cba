package handlers

import (
	"GuardianAI/internal/alert"
	"GuardianAI/internal/models"
	"GuardianAI/internal/reports"
	"GuardianAI/internal/stats"
	"GuardianAI/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	TileURL       = "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png"
	MaxZoom       = 19
	FollowZoom    = 16
	CommunityZoom = 13

	ColorDanger   = "#ef4444"
	ColorUser     = "#6366f1"
	ColorSafeZone = "#10b981"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultCenter is where the community map opens without a fix.
var DefaultCenter = LatLng{Lat: 37.7749, Lng: -122.4194}

type MapConfig struct {
	TileURL         string                       `json:"tileUrl"`
	MaxZoom         int                          `json:"maxZoom"`
	FollowZoom      int                          `json:"followZoom"`
	CommunityZoom   int                          `json:"communityZoom"`
	Center          LatLng                       `json:"center"`
	UserMarkerColor string                       `json:"userMarkerColor"`
	ReportColors    map[models.ReportType]string `json:"reportColors"`
}

func mapConfig(status models.SafetyStatus, loc *models.Location) MapConfig {
	cfg := MapConfig{
		TileURL:         TileURL,
		MaxZoom:         MaxZoom,
		FollowZoom:      FollowZoom,
		CommunityZoom:   CommunityZoom,
		Center:          DefaultCenter,
		UserMarkerColor: ColorUser,
		ReportColors: map[models.ReportType]string{
			models.ReportIncident: ColorDanger,
			models.ReportSafeZone: ColorSafeZone,
		},
	}
	if status == models.StatusDanger {
		cfg.UserMarkerColor = ColorDanger
	}
	if loc != nil {
		cfg.Center = LatLng{Lat: loc.Lat, Lng: loc.Lng}
	}
	return cfg
}

// DashboardView is everything the dashboard renders on first load.
type DashboardView struct {
	Status        models.SafetyStatus      `json:"status"`
	SOS           alert.Snapshot           `json:"sos"`
	Location      *models.Location         `json:"location"`
	ContactCount  int                      `json:"contactCount"`
	Device        models.DevicePanel       `json:"device"`
	Weekly        []models.WeeklyStat      `json:"weekly"`
	RecentReports []models.CommunityReport `json:"recentReports"`
	Map           MapConfig                `json:"map"`
}

func (h *Handlers) handleDashboard(c *gin.Context) {
	snap := h.Trigger.Snapshot()
	loc := h.Watcher.Latest()
	response.Success(c, "success", DashboardView{
		Status:        snap.Status,
		SOS:           snap,
		Location:      loc,
		ContactCount:  len(h.Contacts),
		Device:        stats.Device(len(h.Contacts)),
		Weekly:        stats.Weekly(),
		RecentReports: h.Reports.Recent(reports.DashboardRecent),
		Map:           mapConfig(snap.Status, loc),
	})
}

func (h *Handlers) handleMapConfig(c *gin.Context) {
	response.Success(c, "success", mapConfig(h.Trigger.Snapshot().Status, h.Watcher.Latest()))
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	contacts := h.Contacts
	if contacts == nil {
		contacts = []models.EmergencyContact{}
	}
	response.Success(c, "success", contacts)
}

func (h *Handlers) handleWeeklyStats(c *gin.Context) {
	response.Success(c, "success", stats.Weekly())
}
