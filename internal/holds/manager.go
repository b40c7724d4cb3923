package holds

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"teetime-booking-backend/internal/model"
	"teetime-booking-backend/internal/payload"
	"teetime-booking-backend/internal/store"
)

// Manager owns the hold state machine: create, read-if-live, extend,
// attach-order, release and sweep. All cross-request consistency is
// delegated to the store's per-statement atomicity; the manager takes no
// locks of its own. Reads filter out logically expired rows but never
// delete them; physical deletion belongs to the sweep alone, so the
// sweep's reclaimed count stays the single source of expiry telemetry.
type Manager struct {
	store      store.Store
	defaultTTL time.Duration
}

// NewManager creates a Manager writing through the given store. A
// non-positive defaultTTL falls back to 15 minutes.
func NewManager(s store.Store, defaultTTL time.Duration) *Manager {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	return &Manager{store: s, defaultTTL: defaultTTL}
}

// DefaultTTL returns the TTL applied when a caller passes zero.
func (m *Manager) DefaultTTL() time.Duration {
	return m.defaultTTL
}

// A zero ttl means the configured default. Negative values pass through:
// they produce an already-expired hold, which tests use to exercise lazy
// expiry without manipulating the clock.
func (m *Manager) ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return m.defaultTTL
	}
	return ttl
}

// normalizeTeeTime pins a tee time to UTC at second resolution so the
// triple key compares identically on write and read.
func normalizeTeeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// CreateHold reserves a tee-time slot for the session until now+ttl. A
// zero ttl uses the configured default. The caller performing the
// admission check must consult GetHold for a conflicting live hold first;
// CreateHold itself does not check.
func (m *Manager) CreateHold(ctx context.Context, sessionID, courseID string, teeTime time.Time, players int, ttl time.Duration, order *payload.Order) (*model.BookingHold, error) {
	ttl = m.ttlOrDefault(ttl)

	hold := &model.BookingHold{
		SessionID: sessionID,
		CourseID:  courseID,
		TeeTime:   normalizeTeeTime(teeTime),
		Players:   players,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}

	if order != nil {
		encoded, err := payload.Encode(order)
		if err != nil {
			return nil, err
		}
		hold.OrderPayloadJSON = &encoded
	}

	if err := m.store.InsertHold(ctx, hold); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"course_id":  courseID,
		"tee_time":   hold.TeeTime,
		"expires_at": hold.ExpiresAt,
	}).Info("hold created")

	return hold, nil
}

// GetHold returns the live hold for the triple key, or nil when no row
// exists or the row's expiry has passed. Expired rows are filtered, not
// deleted; this is the admission-check primitive the booking flow uses to
// decide whether a slot is currently contested.
func (m *Manager) GetHold(ctx context.Context, sessionID, courseID string, teeTime time.Time) (*model.BookingHold, error) {
	hold, err := m.store.FindHold(ctx, sessionID, courseID, normalizeTeeTime(teeTime))
	if err != nil {
		return nil, err
	}
	if hold == nil || !hold.Live(time.Now().UTC()) {
		return nil, nil
	}
	return hold, nil
}

// GetHoldsForSession returns all live holds owned by the session.
// Expired rows are silently excluded.
func (m *Manager) GetHoldsForSession(ctx context.Context, sessionID string) ([]model.BookingHold, error) {
	holds, err := m.store.FindHoldsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return filterLive(holds, time.Now().UTC()), nil
}

// GetHeldTeeTimes returns the live holds on a course with tee times in
// [from, to). The booking UI greys these slots out.
func (m *Manager) GetHeldTeeTimes(ctx context.Context, courseID string, from, to time.Time) ([]model.BookingHold, error) {
	holds, err := m.store.FindHoldsForCourse(ctx, courseID, normalizeTeeTime(from), normalizeTeeTime(to))
	if err != nil {
		return nil, err
	}
	return filterLive(holds, time.Now().UTC()), nil
}

// SlotHeld reports whether any session currently has a live hold on the
// exact (courseID, teeTime) slot. This is the admission check the booking
// flow runs before creating a hold; the check-then-create sequence is not
// atomic, an accepted limitation bounded by short TTLs.
func (m *Manager) SlotHeld(ctx context.Context, courseID string, teeTime time.Time) (bool, error) {
	t := normalizeTeeTime(teeTime)
	holds, err := m.store.FindHoldsForCourse(ctx, courseID, t, t.Add(time.Second))
	if err != nil {
		return false, err
	}
	return len(filterLive(holds, time.Now().UTC())) > 0, nil
}

func filterLive(holds []model.BookingHold, now time.Time) []model.BookingHold {
	live := make([]model.BookingHold, 0, len(holds))
	for _, h := range holds {
		if h.Live(now) {
			live = append(live, h)
		}
	}
	return live
}

// ReleaseHold deletes the hold for the triple key. It reports whether a
// row was actually removed, so a second call returns false.
func (m *Manager) ReleaseHold(ctx context.Context, sessionID, courseID string, teeTime time.Time) (bool, error) {
	deleted, err := m.store.DeleteHold(ctx, sessionID, courseID, normalizeTeeTime(teeTime))
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// ReleaseHoldsForSession deletes every hold owned by the session and
// returns how many were removed. Used when a session ends or a checkout
// is abandoned across all in-flight holds.
func (m *Manager) ReleaseHoldsForSession(ctx context.Context, sessionID string) (int64, error) {
	count, err := m.store.DeleteHoldsBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"count":      count,
		}).Info("session holds released")
	}
	return count, nil
}

// CleanupExpiredHolds deletes every hold whose expiry is strictly before
// now, regardless of session. A zero now means the current time.
func (m *Manager) CleanupExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return m.store.DeleteExpired(ctx, now)
}

// ExtendHold refreshes the hold's expiry to now+ttl. The refresh is not
// additive: remaining time from the previous expiry is discarded. Returns
// nil when no row matches the triple key.
func (m *Manager) ExtendHold(ctx context.Context, sessionID, courseID string, teeTime time.Time, ttl time.Duration) (*model.BookingHold, error) {
	expiresAt := time.Now().UTC().Add(m.ttlOrDefault(ttl))
	return m.store.UpdateHold(ctx, sessionID, courseID, normalizeTeeTime(teeTime), expiresAt, nil, nil)
}

// AttachOrder stores the encoded order snapshot on the hold, overwrites
// the player count from the order (the order is authoritative once
// checkout details are known) and refreshes the expiry exactly as
// ExtendHold does, so progressing through checkout keeps the reservation
// alive. Returns nil when no row matches the triple key.
func (m *Manager) AttachOrder(ctx context.Context, sessionID, courseID string, teeTime time.Time, order *payload.Order, ttl time.Duration) (*model.BookingHold, error) {
	if order == nil {
		return nil, errors.New("order payload is required")
	}

	encoded, err := payload.Encode(order)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(m.ttlOrDefault(ttl))
	players := order.Players
	return m.store.UpdateHold(ctx, sessionID, courseID, normalizeTeeTime(teeTime), expiresAt, &players, &encoded)
}

// DecodeOrder returns the order snapshot stored on a hold, or nil when
// none is stored. Malformed or wrong-version payloads are logged and
// treated as absent: the snapshot is recoverable from upstream state, so
// its loss must not block hold operations.
func (m *Manager) DecodeOrder(hold *model.BookingHold) *payload.Order {
	if hold == nil || hold.OrderPayloadJSON == nil || *hold.OrderPayloadJSON == "" {
		return nil
	}

	order, err := payload.Decode(*hold.OrderPayloadJSON)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"hold_id": hold.ID,
			"error":   err,
		}).Warn("discarding unreadable order payload")
		return nil
	}
	return order
}
