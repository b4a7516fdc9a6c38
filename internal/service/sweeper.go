package service

import (
	"context"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/clock"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/events"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/metrics"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/rs/zerolog"
)

// Sweeper releases pending holds whose window has passed. It runs lazily
// ahead of every availability read and reservation attempt, and optionally on
// an interval (see worker.SweepLoop); either alone is sufficient for
// correctness.
type Sweeper struct {
	store  domain.Store
	events domain.EventPublisher
	clock  clock.Clock
	logger *zerolog.Logger
}

func NewSweeper(store domain.Store, eventBus domain.EventPublisher, clk clock.Clock, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:  store,
		events: eventBus,
		clock:  clk,
		logger: logger,
	}
}

// SweepDate expires timed-out holds for one date. Idempotent: a booking
// already expired, approved or rejected since the scan is skipped.
func (s *Sweeper) SweepDate(ctx context.Context, date time.Time) (int, error) {
	expired, err := s.store.ExpiredPendingForDate(ctx, date, s.clock.Now())
	if err != nil {
		return 0, err
	}
	return s.expire(ctx, expired)
}

// SweepAll expires timed-out holds across all dates.
func (s *Sweeper) SweepAll(ctx context.Context) (int, error) {
	expired, err := s.store.ExpiredPending(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	return s.expire(ctx, expired)
}

func (s *Sweeper) expire(ctx context.Context, candidates []*models.Booking) (int, error) {
	count := 0
	for _, b := range candidates {
		cancelled, err := s.store.ExpireBooking(ctx, b.ID, s.clock.Now())
		if err != nil {
			s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("failed to expire booking")
			continue
		}
		if cancelled == nil {
			// Lost the race to an approve/reject or an earlier sweep.
			continue
		}
		count++

		s.logger.Info().
			Int64("booking_id", cancelled.ID).
			Str("booking_number", cancelled.BookingNumber).
			Str("date", models.DateKey(cancelled.Date)).
			Msg("pending hold expired")

		if s.events != nil {
			payload := bookingEventPayload(cancelled, "sweeper")
			if err := s.events.PublishJSON(events.EventBookingCancelled, payload); err != nil {
				s.logger.Error().Err(err).Int64("booking_id", cancelled.ID).Msg("publish event error")
			}
		}
	}
	if count > 0 {
		metrics.AddExpired(count)
	}
	return count, nil
}

func bookingEventPayload(b *models.Booking, changedBy string) events.BookingEventPayload {
	return events.BookingEventPayload{
		BookingID:        b.ID,
		BookingNumber:    b.BookingNumber,
		CustomerID:       b.CustomerID,
		Date:             b.Date,
		SlotHours:        b.SlotHours,
		TotalAmount:      b.TotalAmount,
		RemainingPayment: b.RemainingPayment,
		Status:           b.Status,
		CancelledReason:  b.CancelledReason,
		ChangedBy:        changedBy,
	}
}
