package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidRequest covers malformed input rejected before the ledger is
	// touched: empty hour sets, out-of-range hours, past slots on today.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSlotConflict is the sentinel behind SlotConflictError. Callers should
	// re-query availability; the engine never retries on its own.
	ErrSlotConflict = errors.New("slot conflict")

	// ErrInvalidTransition is returned for lifecycle operations attempted from
	// a terminal or mismatched booking status.
	ErrInvalidTransition = errors.New("invalid booking state transition")

	// ErrInvalidState is returned when an operation is not allowed for the
	// booking's current status (e.g. paying a pending booking).
	ErrInvalidState = errors.New("operation not allowed in current booking state")

	// ErrInvalidAmount is returned for payments that are not positive or
	// exceed the remaining balance.
	ErrInvalidAmount = errors.New("invalid payment amount")

	ErrBookingNotFound = errors.New("booking not found")

	// ErrConcurrentModification signals a lost optimistic-version race; it is
	// an infrastructure-level outcome, distinct from ErrSlotConflict.
	ErrConcurrentModification = errors.New("booking was modified concurrently")
)

// SlotConflictError names exactly which requested hours were no longer
// available at commit time, so the UI can re-offer the rest.
type SlotConflictError struct {
	Date  string
	Hours []int
}

func NewSlotConflictError(date string, hours []int) *SlotConflictError {
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	return &SlotConflictError{Date: date, Hours: sorted}
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflict on %s: hours %v already taken", e.Date, e.Hours)
}

func (e *SlotConflictError) Unwrap() error {
	return ErrSlotConflict
}
