package model

import "time"

// PushSubscription holds a browser push subscription tied to a checkout
// session, used for hold-expiry reminders.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	SessionID string    `gorm:"size:128;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}
