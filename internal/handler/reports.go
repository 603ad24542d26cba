package handlers

import (
	"strconv"

	"GuardianAI/internal/reports"
	"GuardianAI/pkg/response"
	"GuardianAI/pkg/search"

	"github.com/gin-gonic/gin"
)

// handleListReports returns reports newest first; ?limit=n keeps the first n.
func (h *Handlers) handleListReports(c *gin.Context) {
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Fail(c, "invalid limit", nil)
			return
		}
		response.Success(c, "success", h.Reports.Recent(n))
		return
	}
	response.Success(c, "success", h.Reports.List())
}

// handleSearchReports answers ?q=text&type=INCIDENT&urgency=High&limit=n.
func (h *Handlers) handleSearchReports(c *gin.Context) {
	req := search.Request{
		Query:   c.Query("q"),
		Kind:    c.Query("type"),
		Urgency: c.Query("urgency"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Fail(c, "invalid limit", nil)
			return
		}
		req.Size = n
	}
	list, err := h.Reports.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", list)
}

func (h *Handlers) handleGetReport(c *gin.Context) {
	r, err := h.Reports.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", r)
}

// handleSubmitReport files a report at the latest known location.
func (h *Handlers) handleSubmitReport(c *gin.Context) {
	var req reports.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	r, err := h.Reports.Submit(c.Request.Context(), req, h.Watcher.Latest())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "report submitted", r)
}
