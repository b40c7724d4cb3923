package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teetime-booking-backend/internal/model"
	"teetime-booking-backend/internal/payload"
)

// HoldResponse is the API representation of a booking hold.
type HoldResponse struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	CourseID  string         `json:"course_id"`
	TeeTime   time.Time      `json:"tee_time"`
	Players   int            `json:"players"`
	ExpiresAt time.Time      `json:"expires_at"`
	Order     *payload.Order `json:"order,omitempty"`
}

func (h *Handler) holdResponse(hold *model.BookingHold) HoldResponse {
	return HoldResponse{
		ID:        hold.ID,
		SessionID: hold.SessionID,
		CourseID:  hold.CourseID,
		TeeTime:   hold.TeeTime,
		Players:   hold.Players,
		ExpiresAt: hold.ExpiresAt,
		Order:     h.manager.DecodeOrder(hold),
	}
}

type createHoldRequest struct {
	SessionID  string         `json:"session_id" binding:"required"`
	CourseID   string         `json:"course_id" binding:"required"`
	TeeTime    time.Time      `json:"tee_time" binding:"required"`
	Players    int            `json:"players" binding:"required,min=1"`
	TTLMinutes int            `json:"ttl_minutes" binding:"omitempty,min=1"`
	Order      *payload.Order `json:"order"`
}

// CreateHold handles POST /api/holds. A live hold on the same course and
// tee time is a conflict: the slot is contested by another session.
func (h *Handler) CreateHold(c *gin.Context) {
	var req createHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contested, err := h.manager.SlotHeld(c.Request.Context(), req.CourseID, req.TeeTime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if contested {
		c.JSON(http.StatusConflict, gin.H{"error": "a live hold already exists for this slot"})
		return
	}

	hold, err := h.manager.CreateHold(c.Request.Context(),
		req.SessionID, req.CourseID, req.TeeTime, req.Players,
		time.Duration(req.TTLMinutes)*time.Minute, req.Order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, h.holdResponse(hold))
}

func tripleFromQuery(c *gin.Context) (sessionID, courseID string, teeTime time.Time, ok bool) {
	sessionID = c.Query("session_id")
	courseID = c.Query("course_id")
	teeTimeStr := c.Query("tee_time")
	if sessionID == "" || courseID == "" || teeTimeStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id, course_id and tee_time are required"})
		return "", "", time.Time{}, false
	}

	teeTime, err := time.Parse(time.RFC3339, teeTimeStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tee_time must be RFC 3339"})
		return "", "", time.Time{}, false
	}
	return sessionID, courseID, teeTime, true
}

// GetHold handles GET /api/holds. A hold whose expiry has passed reads as
// absent even if the row has not been swept yet.
func (h *Handler) GetHold(c *gin.Context) {
	sessionID, courseID, teeTime, ok := tripleFromQuery(c)
	if !ok {
		return
	}

	hold, err := h.manager.GetHold(c.Request.Context(), sessionID, courseID, teeTime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if hold == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live hold for this slot"})
		return
	}

	c.JSON(http.StatusOK, h.holdResponse(hold))
}

// GetSessionHolds handles GET /api/sessions/:session_id/holds.
func (h *Handler) GetSessionHolds(c *gin.Context) {
	sessionID := c.Param("session_id")

	liveHolds, err := h.manager.GetHoldsForSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]HoldResponse, 0, len(liveHolds))
	for i := range liveHolds {
		responses = append(responses, h.holdResponse(&liveHolds[i]))
	}
	c.JSON(http.StatusOK, responses)
}

type tripleRequest struct {
	SessionID string    `json:"session_id" binding:"required"`
	CourseID  string    `json:"course_id" binding:"required"`
	TeeTime   time.Time `json:"tee_time" binding:"required"`
}

// ReleaseHold handles DELETE /api/holds. Releasing an already-gone hold
// is routine, not an error; the response reports what happened.
func (h *Handler) ReleaseHold(c *gin.Context) {
	var req tripleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	released, err := h.manager.ReleaseHold(c.Request.Context(), req.SessionID, req.CourseID, req.TeeTime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": released})
}

// ReleaseSessionHolds handles DELETE /api/sessions/:session_id/holds.
func (h *Handler) ReleaseSessionHolds(c *gin.Context) {
	sessionID := c.Param("session_id")

	count, err := h.manager.ReleaseHoldsForSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": count})
}

type extendHoldRequest struct {
	tripleRequest
	TTLMinutes int `json:"ttl_minutes" binding:"omitempty,min=1"`
}

// ExtendHold handles POST /api/holds/extend.
func (h *Handler) ExtendHold(c *gin.Context) {
	var req extendHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hold, err := h.manager.ExtendHold(c.Request.Context(),
		req.SessionID, req.CourseID, req.TeeTime,
		time.Duration(req.TTLMinutes)*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if hold == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no hold for this slot"})
		return
	}

	c.JSON(http.StatusOK, h.holdResponse(hold))
}

type attachOrderRequest struct {
	tripleRequest
	TTLMinutes int            `json:"ttl_minutes" binding:"omitempty,min=1"`
	Order      *payload.Order `json:"order" binding:"required"`
}

// AttachOrder handles POST /api/holds/order. Attaching the order snapshot
// also refreshes the hold's expiry, so progressing through checkout keeps
// the reservation alive.
func (h *Handler) AttachOrder(c *gin.Context) {
	var req attachOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hold, err := h.manager.AttachOrder(c.Request.Context(),
		req.SessionID, req.CourseID, req.TeeTime, req.Order,
		time.Duration(req.TTLMinutes)*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if hold == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no hold for this slot"})
		return
	}

	c.JSON(http.StatusOK, h.holdResponse(hold))
}
