package holds

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"teetime-booking-backend/internal/store"
)

// ReminderDispatcher receives IDs of holds that are about to expire.
// Implemented by the notification worker pool; nil disables reminders.
type ReminderDispatcher interface {
	Dispatch(holdID int64)
}

// Sweeper periodically purges holds whose expiry has passed, decoupled
// from read traffic. Before each sweep it dispatches a reminder for every
// still-live hold entering the reminder lead window, at most once per hold.
type Sweeper struct {
	manager  *Manager
	store    store.Store
	interval time.Duration
	lead     time.Duration
	notifier ReminderDispatcher

	reminded map[int64]struct{}
}

// NewSweeper creates a sweeper running every interval. A nil notifier or
// non-positive lead disables expiry reminders.
func NewSweeper(m *Manager, s store.Store, interval, lead time.Duration, notifier ReminderDispatcher) *Sweeper {
	return &Sweeper{
		manager:  m,
		store:    s,
		interval: interval,
		lead:     lead,
		notifier: notifier,
		reminded: make(map[int64]struct{}),
	}
}

// Run starts the sweep loop and blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	logrus.WithField("interval", s.interval).Info("hold sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("hold sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce dispatches due reminders, then reclaims expired rows. The
// reclaimed count logged here is the expiry telemetry for the system.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	s.remind(ctx, now)

	count, err := s.manager.CleanupExpiredHolds(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("failed to sweep expired holds")
		return
	}
	if count > 0 {
		logrus.WithField("reclaimed", count).Info("expired holds swept")
	}
}

func (s *Sweeper) remind(ctx context.Context, now time.Time) {
	if s.notifier == nil || s.lead <= 0 {
		return
	}

	expiring, err := s.store.FindHoldsExpiringBefore(ctx, now.Add(s.lead))
	if err != nil {
		logrus.WithError(err).Error("failed to scan holds for expiry reminders")
		return
	}

	inWindow := make(map[int64]struct{}, len(expiring))
	for _, h := range expiring {
		if !h.Live(now) {
			continue
		}
		inWindow[h.ID] = struct{}{}
		if _, sent := s.reminded[h.ID]; sent {
			continue
		}
		s.reminded[h.ID] = struct{}{}
		s.notifier.Dispatch(h.ID)
	}

	// Holds that left the window were swept, released or extended; either
	// way the dedupe entry is stale.
	for id := range s.reminded {
		if _, ok := inWindow[id]; !ok {
			delete(s.reminded, id)
		}
	}
}
