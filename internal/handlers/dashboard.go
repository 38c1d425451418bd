package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) DashboardSummary(c *gin.Context) {
	sum, err := h.Dashboard.Summary(c.Request.Context(), actor(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) MyTasks(c *gin.Context) {
	tasks, err := h.Dashboard.MyTasks(c.Request.Context(), actor(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Calendar defaults to the current month when ?year= or ?month= is absent.
func (h *Handler) Calendar(c *gin.Context) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if s := c.Query("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			badRequest(c, "invalid year")
			return
		}
		year = v
	}
	if s := c.Query("month"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			badRequest(c, "invalid month")
			return
		}
		month = v
	}

	days, err := h.Dashboard.Calendar(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "days": days})
}
