package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBookingNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetBooking(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestApproveBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1)

	booking := testBooking(date, []int{10, 11}, 1)
	require.NoError(t, db.CreateBookingHold(ctx, booking))

	approved, err := db.ApproveBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Nil(t, approved.PendingExpiresAt)
	assert.Equal(t, booking.Version+1, approved.Version)

	cells, err := db.SlotCells(ctx, date)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	for _, cell := range cells {
		assert.Equal(t, models.SlotBooked, cell.Status)
	}

	// Approving twice is an invalid transition.
	_, err = db.ApproveBooking(ctx, booking.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRejectBookingReleasesCells(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1)

	booking := testBooking(date, []int{10, 11}, 1)
	require.NoError(t, db.CreateBookingHold(ctx, booking))

	rejected, err := db.RejectBooking(ctx, booking.ID, "no payment proof")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, rejected.Status)
	assert.Equal(t, "no payment proof", rejected.CancelledReason)

	cells, err := db.SlotCells(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, cells)

	// The freed hours can be claimed again immediately.
	require.NoError(t, db.CreateBookingHold(ctx, testBooking(date, []int{10, 11}, 2)))
}

func TestRejectApprovedBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1)

	booking := testBooking(date, []int{9}, 1)
	require.NoError(t, db.CreateBookingHold(ctx, booking))
	_, err := db.ApproveBooking(ctx, booking.ID)
	require.NoError(t, err)

	rejected, err := db.RejectBooking(ctx, booking.ID, "ground maintenance")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, rejected.Status)

	// Cancelled is terminal.
	_, err = db.RejectBooking(ctx, booking.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestExpireBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1)

	booking := testBooking(date, []int{20, 21}, 1)
	require.NoError(t, db.CreateBookingHold(ctx, booking))

	// Hold still live: no-op.
	result, err := db.ExpireBooking(ctx, booking.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, result)

	// Past the expiry instant the hold is released.
	after := booking.PendingExpiresAt.Add(time.Second)
	result, err = db.ExpireBooking(ctx, booking.ID, after)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.StatusCancelled, result.Status)
	assert.Equal(t, models.CancelReasonExpired, result.CancelledReason)

	cells, err := db.SlotCells(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, cells)

	// Expiring again is a no-op, not an error.
	result, err = db.ExpireBooking(ctx, booking.ID, after)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExpireApprovedBookingIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1)

	booking := testBooking(date, []int{8}, 1)
	require.NoError(t, db.CreateBookingHold(ctx, booking))
	_, err := db.ApproveBooking(ctx, booking.ID)
	require.NoError(t, err)

	result, err := db.ExpireBooking(ctx, booking.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, result)

	fetched, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, fetched.Status)
}

func TestExpiredPendingForDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	day1 := time.Now().AddDate(0, 0, 1)
	day2 := time.Now().AddDate(0, 0, 2)

	b1 := testBooking(day1, []int{10}, 1)
	b2 := testBooking(day2, []int{10}, 2)
	require.NoError(t, db.CreateBookingHold(ctx, b1))
	require.NoError(t, db.CreateBookingHold(ctx, b2))

	cutoff := time.Now().Add(time.Hour)

	expired, err := db.ExpiredPendingForDate(ctx, day1, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, b1.ID, expired[0].ID)

	all, err := db.ExpiredPending(ctx, cutoff)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApplyPayment(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1)

	booking := testBooking(date, []int{10, 11}, 1) // total 3000
	require.NoError(t, db.CreateBookingHold(ctx, booking))

	// Payments against a pending booking are refused.
	_, err := db.ApplyPayment(ctx, booking.ID, 1000, "cash", "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = db.ApproveBooking(ctx, booking.ID)
	require.NoError(t, err)

	// Amount bounds.
	_, err = db.ApplyPayment(ctx, booking.ID, 0, "cash", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = db.ApplyPayment(ctx, booking.ID, 3001, "cash", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	// Two instalments drive the balance to zero exactly once.
	updated, err := db.ApplyPayment(ctx, booking.ID, 1000, "cash", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), updated.RemainingPayment)
	assert.Equal(t, models.StatusApproved, updated.Status)

	updated, err = db.ApplyPayment(ctx, booking.ID, 2000, "bank_transfer", "proof-123")
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.RemainingPayment)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	// Completed bookings accept no further payments.
	_, err = db.ApplyPayment(ctx, booking.ID, 1, "cash", "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	payments, err := db.GetPayments(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, int64(1000), payments[0].Amount)
	assert.Equal(t, int64(2000), payments[1].Amount)
	assert.Equal(t, "proof-123", payments[1].ProofRef)
}

func TestGetBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	base := time.Now().AddDate(0, 0, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateBookingHold(ctx, testBooking(base.AddDate(0, 0, i), []int{10}, int64(i+1))))
	}

	bookings, err := db.GetBookingsByDateRange(ctx, base, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, bookings, 2)

	all, err := db.GetBookingsByDateRange(ctx, base, base.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestBookingSlotsSnapshotSurvivesRateChange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	date := time.Now().AddDate(0, 0, 1)

	booking := testBooking(date, []int{19}, 1)
	booking.Slots = []models.BookingSlot{{Hour: 19, Rate: 2000, IsNight: true}}
	booking.TotalAmount = 2000
	booking.RemainingPayment = 2000
	require.NoError(t, db.CreateBookingHold(ctx, booking))

	_, err := db.UpdateRateSchedule(ctx, models.RateSchedule{
		DayRate: 9999, NightRate: 9999, NightStartHour: 18, NightEndHour: 6,
	})
	require.NoError(t, err)

	fetched, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Slots, 1)
	assert.Equal(t, int64(2000), fetched.Slots[0].Rate)
	assert.True(t, fetched.Slots[0].IsNight)
	assert.Equal(t, int64(2000), fetched.TotalAmount)
}

func TestDomainErrorsAreErrors(t *testing.T) {
	err := domain.NewSlotConflictError("2025-06-15", []int{16, 14})
	assert.True(t, errors.Is(err, domain.ErrSlotConflict))
	assert.Equal(t, []int{14, 16}, err.Hours)
}
