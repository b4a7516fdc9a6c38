package worker

import (
	"context"
	"testing"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/clock"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepLoopReleasesExpiredHolds(t *testing.T) {
	logger := zerolog.Nop()
	db := newTestWorkerDB(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)

	expiresAt := now.Add(-time.Minute)
	booking := &models.Booking{
		Reference:        "ref-sweep-loop",
		CustomerID:       1,
		Date:             now.AddDate(0, 0, 1),
		SlotHours:        []int{14},
		Slots:            []models.BookingSlot{{Hour: 14, Rate: 1500}},
		TotalAmount:      1500,
		RemainingPayment: 1500,
		Status:           models.StatusPending,
		PendingExpiresAt: &expiresAt,
	}
	require.NoError(t, db.CreateBookingHold(ctx, booking))

	sweeper := service.NewSweeper(db, nil, clk, &logger)
	loop := NewSweepLoop(sweeper, 5*time.Millisecond, &logger)

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		loop.Start(loopCtx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		b, err := db.GetBooking(ctx, booking.ID)
		return err == nil && b.Status == models.StatusCancelled
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not stop on cancel")
	}

	b, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CancelReasonExpired, b.CancelledReason)
}

func TestNewSweepLoopDefaultsInterval(t *testing.T) {
	logger := zerolog.Nop()
	loop := NewSweepLoop(nil, 0, &logger)
	assert.Equal(t, time.Minute, loop.interval)
}
