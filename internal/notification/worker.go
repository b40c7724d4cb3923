package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"teetime-booking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers delivering hold-expiry reminders.
// Jobs are hold IDs dispatched by the sweeper when a hold enters the
// reminder lead window.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	logrus.Debugf("notification worker %d started", id)
	for {
		select {
		case holdID := <-wp.jobs:
			wp.sendRemindersForHold(ctx, holdID)
		case <-ctx.Done():
			logrus.Debugf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(holdID int64) {
	wp.jobs <- holdID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// sendRemindersForHold loads the hold and the owning session's push
// subscriptions, then sends an expiry reminder to each.
func (wp *WorkerPool) sendRemindersForHold(ctx context.Context, holdID int64) {
	var hold model.BookingHold
	if err := wp.db.WithContext(ctx).First(&hold, holdID).Error; err != nil {
		// The hold may have been released or swept since dispatch.
		logrus.Debugf("hold %d gone before reminder could be sent: %v", holdID, err)
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("session_id = ?", hold.SessionID).
		Find(&subscriptions).Error
	if err != nil {
		logrus.Errorf("error fetching subscriptions for session %s: %v", hold.SessionID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	remaining := time.Until(hold.ExpiresAt).Round(time.Minute)
	message := fmt.Sprintf("Your tee time at %s (%s) is held for about %s more. Finish checkout to keep it.",
		hold.CourseID, hold.TeeTime.Format("Jan 2 15:04"), remaining)

	logrus.Infof("sending %d expiry reminders for hold %d", len(subscriptions), holdID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		logrus.Errorf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		logrus.Infof("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			logrus.Errorf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
