package service

import (
	"context"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/events"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/metrics"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/rs/zerolog"
)

// BookingService drives the admin side of the lifecycle: approval, rejection
// and payment recording against bookings created by the reservation path.
type BookingService struct {
	store      domain.Store
	events     domain.EventPublisher
	syncWorker domain.SyncWorker
	sweeper    *Sweeper
	logger     *zerolog.Logger
}

func NewBookingService(
	store domain.Store,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	sweeper *Sweeper,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		store:      store,
		events:     eventBus,
		syncWorker: syncWorker,
		sweeper:    sweeper,
		logger:     logger,
	}
}

// Approve promotes a pending booking. The date is swept first, so a hold
// whose window has already passed is expired before the transition is
// attempted and the admin gets ErrInvalidTransition instead of a silent
// resurrection.
func (s *BookingService) Approve(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.sweeper.SweepDate(ctx, booking.Date); err != nil {
		return nil, err
	}

	approved, err := s.store.ApproveBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", approved.ID).
		Str("booking_number", approved.BookingNumber).
		Msg("booking approved")

	s.publishEvent(events.EventBookingApproved, approved, "admin")
	s.enqueueStatus(ctx, approved)

	return approved, nil
}

// Reject cancels a pending or approved booking and frees its slots.
func (s *BookingService) Reject(ctx context.Context, id int64, reason string) (*models.Booking, error) {
	rejected, err := s.store.RejectBooking(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", rejected.ID).
		Str("booking_number", rejected.BookingNumber).
		Str("reason", reason).
		Msg("booking rejected")

	s.publishEvent(events.EventBookingCancelled, rejected, "admin")
	s.enqueueStatus(ctx, rejected)

	return rejected, nil
}

// RecordPayment applies a payment to an approved booking. The store enforces
// the amount bounds and flips the booking to completed when the remaining
// balance hits zero.
func (s *BookingService) RecordPayment(ctx context.Context, id, amount int64, method, proofRef string) (*models.Booking, error) {
	booking, err := s.store.ApplyPayment(ctx, id, amount, method, proofRef)
	if err != nil {
		metrics.IncPayment("rejected")
		return nil, err
	}
	result := "accepted"
	if booking.Status == models.StatusCompleted {
		result = "completed"
	}
	metrics.IncPayment(result)

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("amount", amount).
		Int64("remaining", booking.RemainingPayment).
		Msg("payment recorded")

	if booking.Status == models.StatusCompleted {
		s.publishEvent(events.EventPaymentCompleted, booking, "admin")
		s.enqueueStatus(ctx, booking)
	}

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.store.GetBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) GetPayments(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	return s.store.GetPayments(ctx, bookingID)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(eventType, bookingEventPayload(booking, changedBy)); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueStatus(ctx context.Context, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueStatusUpdate(ctx, booking.ID, booking.Status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("sheets enqueue error")
	}
}
