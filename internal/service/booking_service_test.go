package service

import (
	"context"
	"testing"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/events"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/metrics"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	approvedEvents := env.capture(events.EventBookingApproved)

	booking, err := env.reservations.Reserve(ctx, ReserveInput{
		Date: env.tomorrow(), Hours: []int{14}, CustomerID: 1,
	})
	require.NoError(t, err)

	approved, err := env.bookings.Approve(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Nil(t, approved.PendingExpiresAt)

	hours, err := env.reservations.GetAvailability(ctx, env.tomorrow())
	require.NoError(t, err)
	assert.Equal(t, models.SlotBooked, hours[14].Status)

	require.Len(t, *approvedEvents, 1)
	assert.Equal(t, "admin", (*approvedEvents)[0].ChangedBy)

	// An approved booking survives any later sweep.
	env.clock.Advance(2 * time.Hour)
	_, err = env.sweeper.SweepAll(ctx)
	require.NoError(t, err)

	fetched, err := env.bookings.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, fetched.Status)
}

func TestApproveAfterExpiryFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.reservations.Reserve(ctx, ReserveInput{
		Date: env.tomorrow(), Hours: []int{14}, CustomerID: 1,
	})
	require.NoError(t, err)

	// The hold lapses before the admin gets to it. Approve sweeps first, so
	// the transition is attempted from cancelled and refused.
	env.clock.Advance(31 * time.Minute)

	_, err = env.bookings.Approve(ctx, booking.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	fetched, err := env.bookings.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, fetched.Status)
	assert.Equal(t, models.CancelReasonExpired, fetched.CancelledReason)
}

func TestRejectBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cancelledEvents := env.capture(events.EventBookingCancelled)

	booking, err := env.reservations.Reserve(ctx, ReserveInput{
		Date: env.tomorrow(), Hours: []int{14, 15}, CustomerID: 1,
	})
	require.NoError(t, err)

	rejected, err := env.bookings.Reject(ctx, booking.ID, "payment proof unreadable")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, rejected.Status)
	assert.Equal(t, "payment proof unreadable", rejected.CancelledReason)

	require.Len(t, *cancelledEvents, 1)
	assert.Equal(t, "admin", (*cancelledEvents)[0].ChangedBy)

	// Freed hours are immediately reservable.
	_, err = env.reservations.Reserve(ctx, ReserveInput{
		Date: env.tomorrow(), Hours: []int{14, 15}, CustomerID: 2,
	})
	require.NoError(t, err)
}

func TestRecordPaymentCompletesExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	completedEvents := env.capture(events.EventPaymentCompleted)

	booking, err := env.reservations.Reserve(ctx, ReserveInput{
		Date: env.tomorrow(), Hours: []int{10, 11}, CustomerID: 1, // 3000 total
	})
	require.NoError(t, err)

	_, err = env.bookings.Approve(ctx, booking.ID)
	require.NoError(t, err)

	updated, err := env.bookings.RecordPayment(ctx, booking.ID, 1200, "cash", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, int64(1800), updated.RemainingPayment)
	assert.Empty(t, *completedEvents)

	updated, err = env.bookings.RecordPayment(ctx, booking.ID, 1800, "bank_transfer", "slip-9")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, int64(0), updated.RemainingPayment)
	require.Len(t, *completedEvents, 1)

	// Balance never goes negative and completion fires only once.
	_, err = env.bookings.RecordPayment(ctx, booking.ID, 1, "cash", "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, *completedEvents, 1)

	payments, err := env.bookings.GetPayments(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestRecordPaymentMetricsResults(t *testing.T) {
	metrics.Register()
	env := newTestEnv(t)
	ctx := context.Background()

	before := paymentCounts(t)

	booking, err := env.reservations.Reserve(ctx, ReserveInput{
		Date: env.tomorrow(), Hours: []int{10, 11}, CustomerID: 1, // 3000 total
	})
	require.NoError(t, err)
	_, err = env.bookings.Approve(ctx, booking.ID)
	require.NoError(t, err)

	// Partial payment counts as accepted, the closing payment as completed,
	// and a payment against a settled booking as rejected.
	_, err = env.bookings.RecordPayment(ctx, booking.ID, 1000, "cash", "")
	require.NoError(t, err)
	_, err = env.bookings.RecordPayment(ctx, booking.ID, 2000, "cash", "")
	require.NoError(t, err)
	_, err = env.bookings.RecordPayment(ctx, booking.ID, 1, "cash", "")
	require.Error(t, err)

	after := paymentCounts(t)
	assert.Equal(t, 1.0, after["accepted"]-before["accepted"])
	assert.Equal(t, 1.0, after["completed"]-before["completed"])
	assert.Equal(t, 1.0, after["rejected"]-before["rejected"])
}

func paymentCounts(t *testing.T) map[string]float64 {
	t.Helper()
	counts := make(map[string]float64)
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "cricket_booking_payments_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" {
					counts[label.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	return counts
}

func TestRecordPaymentOverRemainingRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.reservations.Reserve(ctx, ReserveInput{
		Date: env.tomorrow(), Hours: []int{10}, CustomerID: 1,
	})
	require.NoError(t, err)
	_, err = env.bookings.Approve(ctx, booking.ID)
	require.NoError(t, err)

	_, err = env.bookings.RecordPayment(ctx, booking.ID, booking.TotalAmount+1, "cash", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSweepAllCountsReleases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.reservations.Reserve(ctx, ReserveInput{
			Date: env.tomorrow().AddDate(0, 0, i), Hours: []int{9}, CustomerID: int64(i + 1),
		})
		require.NoError(t, err)
	}

	env.clock.Advance(31 * time.Minute)

	count, err := env.sweeper.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Idempotent.
	count, err = env.sweeper.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
