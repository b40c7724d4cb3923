package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is stamped into every encoded order snapshot so stored
// payloads can be told apart from ones written by an older or newer schema.
const SchemaVersion = 1

var (
	// ErrMalformed means the stored text is not a parseable order snapshot.
	ErrMalformed = errors.New("malformed order payload")
	// ErrVersion means the snapshot parsed but carries an unknown schema version.
	ErrVersion = errors.New("unsupported order payload version")
)

// Order status tags. The hold subsystem records these opaquely; the
// booking-confirmation flow owns the transitions.
const (
	StatusHeld      = "HELD"
	StatusConfirmed = "CONFIRMED"
	StatusExpired   = "EXPIRED"
)

// Money is an amount with its currency code.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Customer is the optional contact block captured during checkout.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Payment is the optional payment outcome recorded by the payment collaborator.
type Payment struct {
	Method         string `json:"method"`
	Status         string `json:"status"`
	TransactionRef string `json:"transaction_ref,omitempty"`
}

// Order is the opaque snapshot of in-progress booking details attached to
// a hold. The hold subsystem stores and returns it without interpreting it.
type Order struct {
	SchemaVersion int       `json:"schema_version"`
	OrderID       string    `json:"order_id"`
	CourseID      string    `json:"course_id"`
	CourseName    string    `json:"course_name,omitempty"`
	TeeTime       time.Time `json:"tee_time"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Players       int       `json:"players"`
	Holes         int       `json:"holes"`
	GreenFee      Money     `json:"green_fee"`
	Extras        Money     `json:"extras"`
	Total         Money     `json:"total"`
	Status        string    `json:"status"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	Customer      *Customer `json:"customer,omitempty"`
	Payment       *Payment  `json:"payment,omitempty"`
	BookingID     string    `json:"booking_id,omitempty"`
}

func (o *Order) encodable() Order {
	c := *o
	c.SchemaVersion = SchemaVersion
	return c
}

// Encode serializes an order snapshot to the textual form stored on a
// hold. The current SchemaVersion is always stamped in; Decode(Encode(o))
// round-trips exactly.
func Encode(o *Order) (string, error) {
	c := o.encodable()
	b, err := json.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("failed to encode order payload: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored order snapshot. It returns ErrMalformed for
// unparseable text and ErrVersion for a parseable snapshot written under
// an unknown schema version, so callers can tell the two apart.
func Decode(raw string) (*Order, error) {
	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if o.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, o.SchemaVersion, SchemaVersion)
	}
	return &o, nil
}
