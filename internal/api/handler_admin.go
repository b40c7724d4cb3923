package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SweepExpired handles POST /api/admin/sweep, the manual counterpart of
// the background sweeper. An optional `now` query parameter (RFC 3339)
// overrides the cutoff, which the admin dashboard uses for backfills.
func (h *Handler) SweepExpired(c *gin.Context) {
	var now time.Time
	if v := c.Query("now"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "now must be RFC 3339"})
			return
		}
		now = t
	}

	count, err := h.manager.CleanupExpiredHolds(c.Request.Context(), now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reclaimed": count})
}
