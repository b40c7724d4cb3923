package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"teetime-booking-backend/internal/model"
)

// Store defines the persistence operations over the holds table. Each
// method is a single round-trip to the database; there is no in-process
// caching, so every call reflects current persisted state. Absence is a
// nil result, never an error; only storage failures are returned as errors.
type Store interface {
	DB() *gorm.DB

	InsertHold(ctx context.Context, hold *model.BookingHold) error
	FindHold(ctx context.Context, sessionID, courseID string, teeTime time.Time) (*model.BookingHold, error)
	FindHoldsBySession(ctx context.Context, sessionID string) ([]model.BookingHold, error)
	FindHoldsForCourse(ctx context.Context, courseID string, from, to time.Time) ([]model.BookingHold, error)
	FindHoldsExpiringBefore(ctx context.Context, deadline time.Time) ([]model.BookingHold, error)
	DeleteHold(ctx context.Context, sessionID, courseID string, teeTime time.Time) (int64, error)
	DeleteHoldsBySession(ctx context.Context, sessionID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	UpdateHold(ctx context.Context, sessionID, courseID string, teeTime time.Time, expiresAt time.Time, players *int, payloadJSON *string) (*model.BookingHold, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for collaborators that manage their
// own tables (push subscriptions, notification worker).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func tripleScope(db *gorm.DB, sessionID, courseID string, teeTime time.Time) *gorm.DB {
	return db.Where("session_id = ? AND course_id = ? AND tee_time = ?", sessionID, courseID, teeTime)
}

// InsertHold persists a new hold row and fills in the generated ID.
func (s *gormStore) InsertHold(ctx context.Context, hold *model.BookingHold) error {
	if err := s.db.WithContext(ctx).Create(hold).Error; err != nil {
		return fmt.Errorf("failed to insert hold: %w", err)
	}
	return nil
}

// FindHold performs an exact-match point lookup on the triple key. It
// returns (nil, nil) when no row matches.
func (s *gormStore) FindHold(ctx context.Context, sessionID, courseID string, teeTime time.Time) (*model.BookingHold, error) {
	var hold model.BookingHold
	err := tripleScope(s.db.WithContext(ctx), sessionID, courseID, teeTime).First(&hold).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find hold: %w", err)
	}
	return &hold, nil
}

// FindHoldsBySession returns every hold row for a session regardless of liveness.
func (s *gormStore) FindHoldsBySession(ctx context.Context, sessionID string) ([]model.BookingHold, error) {
	var holds []model.BookingHold
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("failed to find holds for session: %w", err)
	}
	return holds, nil
}

// FindHoldsForCourse returns every hold row for a course with a tee time
// inside [from, to), regardless of liveness.
func (s *gormStore) FindHoldsForCourse(ctx context.Context, courseID string, from, to time.Time) ([]model.BookingHold, error) {
	var holds []model.BookingHold
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND tee_time >= ? AND tee_time < ?", courseID, from, to).
		Find(&holds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find holds for course: %w", err)
	}
	return holds, nil
}

// FindHoldsExpiringBefore returns every hold row whose expiry falls
// strictly before the deadline, regardless of liveness.
func (s *gormStore) FindHoldsExpiringBefore(ctx context.Context, deadline time.Time) ([]model.BookingHold, error) {
	var holds []model.BookingHold
	if err := s.db.WithContext(ctx).Where("expires_at < ?", deadline).Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("failed to find expiring holds: %w", err)
	}
	return holds, nil
}

// DeleteHold removes the hold addressed by the triple key and reports how
// many rows were removed (0 or 1).
func (s *gormStore) DeleteHold(ctx context.Context, sessionID, courseID string, teeTime time.Time) (int64, error) {
	res := tripleScope(s.db.WithContext(ctx), sessionID, courseID, teeTime).Delete(&model.BookingHold{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete hold: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteHoldsBySession removes every hold row for a session.
func (s *gormStore) DeleteHoldsBySession(ctx context.Context, sessionID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.BookingHold{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete holds for session: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteExpired removes every hold row whose expiry is strictly before now.
func (s *gormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.BookingHold{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired holds: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateHold performs a targeted update of the mutable fields only. A nil
// players or payloadJSON leaves that column untouched. It returns
// (nil, nil) when no row matched the triple key.
func (s *gormStore) UpdateHold(ctx context.Context, sessionID, courseID string, teeTime time.Time, expiresAt time.Time, players *int, payloadJSON *string) (*model.BookingHold, error) {
	updates := map[string]any{"expires_at": expiresAt}
	if players != nil {
		updates["players"] = *players
	}
	if payloadJSON != nil {
		updates["order_payload_json"] = *payloadJSON
	}

	res := tripleScope(s.db.WithContext(ctx).Model(&model.BookingHold{}), sessionID, courseID, teeTime).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update hold: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	return s.FindHold(ctx, sessionID, courseID, teeTime)
}
