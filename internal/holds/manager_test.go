package holds

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"teetime-booking-backend/internal/model"
	"teetime-booking-backend/internal/payload"
	"teetime-booking-backend/internal/store"
)

func newTestManager(t *testing.T) (*Manager, store.Store) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.BookingHold{}, &model.PushSubscription{}))

	s := store.NewGormStore(db)
	return NewManager(s, 15*time.Minute), s
}

var teeTime = time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC)

func TestCreateHoldDefaultTTL(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	before := time.Now().UTC()
	hold, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 0, nil)
	require.NoError(t, err)

	assert.NotZero(t, hold.ID)
	assert.Equal(t, 2, hold.Players)
	assert.WithinDuration(t, before.Add(15*time.Minute), hold.ExpiresAt, 2*time.Second,
		"expiresAt is the default TTL in the future from call time")
}

func TestCreateHoldCallerTTL(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	before := time.Now().UTC()
	hold, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 5*time.Minute, nil)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(5*time.Minute), hold.ExpiresAt, 2*time.Second)
}

func TestCreateHoldWithOrder(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	order := &payload.Order{
		OrderID:  "ord-1",
		CourseID: "C1",
		TeeTime:  teeTime,
		Players:  2,
		Status:   payload.StatusHeld,
		Total:    payload.Money{Amount: 150, Currency: "EUR"},
	}

	hold, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 0, order)
	require.NoError(t, err)
	require.NotNil(t, hold.OrderPayloadJSON)

	decoded := m.DecodeOrder(hold)
	require.NotNil(t, decoded)
	assert.Equal(t, "ord-1", decoded.OrderID)
	assert.Equal(t, payload.StatusHeld, decoded.Status)
}

func TestGetHoldFiltersExpiredWithoutDeleting(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()

	// Negative TTL: the hold is born expired, as if its window had lapsed.
	_, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, -time.Minute, nil)
	require.NoError(t, err)

	hold, err := m.GetHold(ctx, "S1", "C1", teeTime)
	require.NoError(t, err)
	assert.Nil(t, hold, "expired holds read as absent before any sweep has run")

	// The row still physically exists: reads filter, only the sweep deletes.
	row, err := s.FindHold(ctx, "S1", "C1", teeTime)
	require.NoError(t, err)
	assert.NotNil(t, row)
}

func TestGetHoldsForSessionFiltersExpired(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, -time.Minute, nil)
	require.NoError(t, err)
	_, err = m.CreateHold(ctx, "S1", "C2", teeTime, 4, 0, nil)
	require.NoError(t, err)

	live, err := m.GetHoldsForSession(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "C2", live[0].CourseID)
}

func TestExtendHoldIsNotAdditive(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	// Only two minutes left on the original hold.
	created, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 2*time.Minute, nil)
	require.NoError(t, err)

	before := time.Now().UTC()
	extended, err := m.ExtendHold(ctx, "S1", "C1", teeTime, 15*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, extended)

	assert.WithinDuration(t, before.Add(15*time.Minute), extended.ExpiresAt, 2*time.Second,
		"expiry is recomputed from now, not stacked on the previous expiry")
	assert.True(t, extended.ExpiresAt.After(created.ExpiresAt))
	assert.Equal(t, 2, extended.Players, "extend does not touch the player count")
}

func TestExtendHoldAbsent(t *testing.T) {
	m, _ := newTestManager(t)

	extended, err := m.ExtendHold(context.Background(), "S1", "C1", teeTime, 0)
	require.NoError(t, err)
	assert.Nil(t, extended)
}

func TestAttachOrderStoresPayloadAndRefreshesExpiry(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 2*time.Minute, nil)
	require.NoError(t, err)

	order := &payload.Order{
		OrderID:  "ord-2",
		CourseID: "C1",
		TeeTime:  teeTime,
		Players:  4, // checkout added two more players
		Status:   payload.StatusHeld,
		Customer: &payload.Customer{Name: "A. Palmer", Email: "a.palmer@example.com"},
	}

	before := time.Now().UTC()
	updated, err := m.AttachOrder(ctx, "S1", "C1", teeTime, order, 0)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, 4, updated.Players, "the order's player count is authoritative")
	assert.WithinDuration(t, before.Add(15*time.Minute), updated.ExpiresAt, 2*time.Second,
		"attaching an order refreshes the expiry exactly as extend does")

	decoded := m.DecodeOrder(updated)
	require.NotNil(t, decoded)
	assert.Equal(t, "ord-2", decoded.OrderID)
	require.NotNil(t, decoded.Customer)
	assert.Equal(t, "A. Palmer", decoded.Customer.Name)
}

func TestAttachOrderAbsent(t *testing.T) {
	m, _ := newTestManager(t)

	updated, err := m.AttachOrder(context.Background(), "S1", "C1", teeTime, &payload.Order{Players: 2}, 0)
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestReleaseHoldIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 0, nil)
	require.NoError(t, err)

	released, err := m.ReleaseHold(ctx, "S1", "C1", teeTime)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = m.ReleaseHold(ctx, "S1", "C1", teeTime)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestReleaseHoldsForSessionScoped(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 0, nil)
	require.NoError(t, err)
	_, err = m.CreateHold(ctx, "S1", "C2", teeTime.Add(time.Hour), 3, 0, nil)
	require.NoError(t, err)
	_, err = m.CreateHold(ctx, "S2", "C1", teeTime.Add(2*time.Hour), 1, 0, nil)
	require.NoError(t, err)

	count, err := m.ReleaseHoldsForSession(ctx, "S1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	other, err := m.GetHoldsForSession(ctx, "S2")
	require.NoError(t, err)
	assert.Len(t, other, 1, "a concurrently-held hold for a different session is untouched")
}

func TestCleanupExpiredHolds(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()

	// Mixed set across sessions and courses: two lapsed, two live.
	_, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, -time.Minute, nil)
	require.NoError(t, err)
	_, err = m.CreateHold(ctx, "S2", "C2", teeTime, 2, -time.Hour, nil)
	require.NoError(t, err)
	_, err = m.CreateHold(ctx, "S1", "C3", teeTime, 2, 10*time.Minute, nil)
	require.NoError(t, err)
	_, err = m.CreateHold(ctx, "S3", "C1", teeTime.Add(time.Hour), 2, 10*time.Minute, nil)
	require.NoError(t, err)

	count, err := m.CleanupExpiredHolds(ctx, time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Exactly the live rows remain.
	s1, err := s.FindHoldsBySession(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, s1, 1)
	assert.Equal(t, "C3", s1[0].CourseID)

	s2, err := s.FindHoldsBySession(ctx, "S2")
	require.NoError(t, err)
	assert.Empty(t, s2)
}

func TestDecodeOrderMalformed(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()

	hold, err := m.CreateHold(ctx, "S1", "C1", teeTime, 2, 0, nil)
	require.NoError(t, err)

	// Corrupt the stored payload directly, as a bad migration might.
	corrupt := `{"schema_version":1,"order_id":"ord-`
	_, err = s.UpdateHold(ctx, "S1", "C1", hold.TeeTime, hold.ExpiresAt, nil, &corrupt)
	require.NoError(t, err)

	stored, err := s.FindHold(ctx, "S1", "C1", hold.TeeTime)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.NotPanics(t, func() {
		assert.Nil(t, m.DecodeOrder(stored), "corrupt payload reads as absent, never as a failure")
	})
}

func TestSlotHeld(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	held, err := m.SlotHeld(ctx, "C1", teeTime)
	require.NoError(t, err)
	assert.False(t, held)

	_, err = m.CreateHold(ctx, "S1", "C1", teeTime, 2, 0, nil)
	require.NoError(t, err)

	// Contested for any session, not just the owner.
	held, err = m.SlotHeld(ctx, "C1", teeTime)
	require.NoError(t, err)
	assert.True(t, held)

	// An expired hold on another slot does not contest it.
	_, err = m.CreateHold(ctx, "S2", "C1", teeTime.Add(time.Hour), 2, -time.Minute, nil)
	require.NoError(t, err)
	held, err = m.SlotHeld(ctx, "C1", teeTime.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, held)
}

// TestHoldScenario walks the checkout happy path end to end.
func TestHoldScenario(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	slot := time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC)

	before := time.Now().UTC()
	created, err := m.CreateHold(ctx, "S1", "C1", slot, 2, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, created.Players)
	assert.WithinDuration(t, before.Add(15*time.Minute), created.ExpiresAt, 2*time.Second)

	fetched, err := m.GetHold(ctx, "S1", "C1", slot)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, created.ID, fetched.ID)

	released, err := m.ReleaseHold(ctx, "S1", "C1", slot)
	require.NoError(t, err)
	assert.True(t, released)

	gone, err := m.GetHold(ctx, "S1", "C1", slot)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
