package models

import "time"

// Booking is a customer's claim on one or more hourly slots of a single date.
type Booking struct {
	ID               int64         `json:"id"`
	Reference        string        `json:"reference"`
	BookingNumber    string        `json:"booking_number"`
	CustomerID       int64         `json:"customer_id"`
	Date             time.Time     `json:"date"`
	SlotHours        []int         `json:"slot_hours"`
	Slots            []BookingSlot `json:"slots,omitempty"`
	TotalAmount      int64         `json:"total_amount"`
	AdvancePayment   int64         `json:"advance_payment"`
	RemainingPayment int64         `json:"remaining_payment"`
	Status           string        `json:"status"` // pending, approved, cancelled, completed
	PaymentMethod    string        `json:"payment_method,omitempty"`
	PaymentProofRef  string        `json:"payment_proof_ref,omitempty"`
	PendingExpiresAt *time.Time    `json:"pending_expires_at,omitempty"`
	CancelledReason  string        `json:"cancelled_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Version          int64         `json:"version"`
}

// BookingSlot is the per-hour rate snapshot taken at creation time. Rates are
// never re-read from the live schedule for an existing booking.
type BookingSlot struct {
	Hour    int   `json:"hour"`
	Rate    int64 `json:"rate"`
	IsNight bool  `json:"is_night"`
}

// IsTerminal reports whether no further status transitions are allowed.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

// HoldExpired reports whether a pending booking's hold has timed out at now.
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == StatusPending && b.PendingExpiresAt != nil && b.PendingExpiresAt.Before(now)
}

// Payment is one recorded instalment against a booking's remaining balance.
type Payment struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method,omitempty"`
	ProofRef  string    `json:"proof_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
