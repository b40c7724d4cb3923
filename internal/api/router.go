package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"teetime-booking-backend/config"
	"teetime-booking-backend/internal/holds"
	"teetime-booking-backend/internal/mw"
	"teetime-booking-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, m *holds.Manager, s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(m, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(mw.RequestID(), rateLimiter)
	{
		// Hold lifecycle. Never cached: liveness is re-evaluated per read.
		api.POST("/holds", handler.CreateHold)
		api.GET("/holds", handler.GetHold)
		api.DELETE("/holds", handler.ReleaseHold)
		api.POST("/holds/extend", handler.ExtendHold)
		api.POST("/holds/order", handler.AttachOrder)

		api.GET("/sessions/:session_id/holds", handler.GetSessionHolds)
		api.DELETE("/sessions/:session_id/holds", handler.ReleaseSessionHolds)

		// Presentation view of contested slots, cached briefly.
		api.GET("/courses/:course_id/held-times", caching, handler.GetHeldTimes)

		api.POST("/admin/sweep", handler.SweepExpired)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
