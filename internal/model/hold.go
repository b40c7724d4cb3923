package model

import "time"

// BookingHold is a time-bounded reservation of a tee-time slot, keeping
// the slot off the market while a customer completes checkout. A hold is
// addressed by the (session_id, course_id, tee_time) triple; expiry is a
// liveness judgment derived from ExpiresAt, never a stored state.
type BookingHold struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	SessionID        string    `gorm:"size:128;not null;index:idx_holds_triple,priority:1"`
	CourseID         string    `gorm:"size:64;not null;index:idx_holds_triple,priority:2"`
	TeeTime          time.Time `gorm:"not null;index:idx_holds_triple,priority:3"`
	Players          int       `gorm:"not null"`
	ExpiresAt        time.Time `gorm:"not null;index"`
	OrderPayloadJSON *string   `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Live reports whether the hold is still in force at the given instant.
// Every read path shares this predicate so expiry checks cannot diverge.
func (h *BookingHold) Live(now time.Time) bool {
	return h.ExpiresAt.After(now)
}
