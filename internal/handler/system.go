package handlers

import (
	"net/http"

	"GuardianAI/pkg/middleware"
	"GuardianAI/pkg/response"

	"github.com/gin-gonic/gin"
)

// UpdateRateLimiterConfig swaps the limiter settings at runtime.
func (h *Handlers) UpdateRateLimiterConfig(c *gin.Context) {
	if h.Limiter == nil {
		response.Fail(c, "rate limiter disabled", nil)
		return
	}
	var config middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	h.Limiter.UpdateConfig(config)
	response.Success(c, "rate limiter config updated", h.Limiter.Config())
}

// HealthCheck pings the audit database when there is one.
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.DB != nil {
		sqlDB, err := h.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "sseClients": h.Hub.Clients()})
}
