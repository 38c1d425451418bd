package handlers

import (
	"net/http"
	"strconv"

	"projectflow/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs supports ?entity=, ?entity_id= and ?limit=.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	filter := repository.AuditFilter{Entity: c.Query("entity")}

	if s := c.Query("entity_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			badRequest(c, "invalid entity_id")
			return
		}
		filter.EntityID = uint(id)
	}
	if s := c.Query("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			badRequest(c, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	logs, err := h.Audit.List(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
