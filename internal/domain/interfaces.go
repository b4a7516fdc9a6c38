package domain

import (
	"context"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
)

// Store is the persistence surface the services build on. All slot-cell
// mutations happen through its atomic operations; nothing else writes cell
// status.
type Store interface {
	// Ledger operations.
	CreateBookingHold(ctx context.Context, booking *models.Booking) error
	SlotCells(ctx context.Context, date time.Time) ([]models.SlotCell, error)

	// Booking lifecycle.
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ApproveBooking(ctx context.Context, id int64) (*models.Booking, error)
	RejectBooking(ctx context.Context, id int64, reason string) (*models.Booking, error)
	ExpireBooking(ctx context.Context, id int64, now time.Time) (*models.Booking, error)
	ExpiredPending(ctx context.Context, now time.Time) ([]*models.Booking, error)
	ExpiredPendingForDate(ctx context.Context, date time.Time, now time.Time) ([]*models.Booking, error)
	ApplyPayment(ctx context.Context, id, amount int64, method, proofRef string) (*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetPayments(ctx context.Context, bookingID int64) ([]models.Payment, error)

	// Rate schedule persistence.
	GetRateSchedule(ctx context.Context) (models.RateSchedule, error)
	UpdateRateSchedule(ctx context.Context, schedule models.RateSchedule) (models.RateSchedule, error)
}

// RateProvider serves the current rate schedule, possibly from a cache in
// front of the Store.
type RateProvider interface {
	Current(ctx context.Context) (models.RateSchedule, error)
	Invalidate(ctx context.Context) error
}

// EventPublisher fans domain events out to external delivery collaborators.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts mirror tasks for the bookings sheet.
type SyncWorker interface {
	EnqueueUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueStatusUpdate(ctx context.Context, bookingID int64, status string) error
}
