package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"teetime-booking-backend/internal/holds"
	"teetime-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	manager *holds.Manager
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(m *holds.Manager, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		manager: m,
		store:   s,
		webpush: webpushOptions,
	}
}
