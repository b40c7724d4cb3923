package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HeldTimeResponse marks a tee time on a course as currently contested.
type HeldTimeResponse struct {
	TeeTime   time.Time `json:"tee_time"`
	Players   int       `json:"players"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetHeldTimes handles GET /api/courses/:course_id/held-times. The
// booking UI greys these slots out in the tee sheet. Defaults to the next
// 24 hours when no window is given.
func (h *Handler) GetHeldTimes(c *gin.Context) {
	courseID := c.Param("course_id")

	now := time.Now().UTC()
	from, to := now, now.Add(24*time.Hour)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		to = t
	}

	liveHolds, err := h.manager.GetHeldTeeTimes(c.Request.Context(), courseID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]HeldTimeResponse, 0, len(liveHolds))
	for _, hold := range liveHolds {
		responses = append(responses, HeldTimeResponse{
			TeeTime:   hold.TeeTime,
			Players:   hold.Players,
			ExpiresAt: hold.ExpiresAt,
		})
	}
	c.JSON(http.StatusOK, responses)
}
