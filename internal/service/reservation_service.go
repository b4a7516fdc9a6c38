package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/clock"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/events"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/metrics"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReservationService turns a customer's slot selection into a pending booking
// and serves the 24-hour availability view. Both paths sweep expired holds
// first, so stale pending state is never observable.
type ReservationService struct {
	store        domain.Store
	rates        domain.RateProvider
	events       domain.EventPublisher
	syncWorker   domain.SyncWorker
	sweeper      *Sweeper
	clock        clock.Clock
	holdDuration time.Duration
	logger       *zerolog.Logger
}

func NewReservationService(
	store domain.Store,
	rates domain.RateProvider,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	sweeper *Sweeper,
	clk clock.Clock,
	holdDuration time.Duration,
	logger *zerolog.Logger,
) *ReservationService {
	if holdDuration <= 0 {
		holdDuration = models.DefaultHoldMinutes * time.Minute
	}
	return &ReservationService{
		store:        store,
		rates:        rates,
		events:       eventBus,
		syncWorker:   syncWorker,
		sweeper:      sweeper,
		clock:        clk,
		holdDuration: holdDuration,
		logger:       logger,
	}
}

type ReserveInput struct {
	Date            time.Time
	Hours           []int
	CustomerID      int64
	AdvancePayment  int64
	PaymentMethod   string
	PaymentProofRef string
}

// Reserve validates the request, sweeps the date, and attempts the atomic
// hold. Either every requested hour is held or none are; losers get a
// SlotConflictError naming exactly the hours that were taken.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (*models.Booking, error) {
	hours, err := s.validateRequest(in)
	if err != nil {
		metrics.IncReservation("invalid")
		return nil, err
	}

	if _, err := s.sweeper.SweepDate(ctx, in.Date); err != nil {
		s.logger.Error().Err(err).Str("date", models.DateKey(in.Date)).Msg("pre-reserve sweep failed")
		metrics.IncReservation("error")
		return nil, err
	}

	schedule, err := s.rates.Current(ctx)
	if err != nil {
		metrics.IncReservation("error")
		return nil, err
	}

	slots := make([]models.BookingSlot, 0, len(hours))
	var total int64
	for _, h := range hours {
		rate, isNight := schedule.RateFor(h)
		slots = append(slots, models.BookingSlot{Hour: h, Rate: rate, IsNight: isNight})
		total += rate
	}

	if in.AdvancePayment < 0 || in.AdvancePayment > total {
		metrics.IncReservation("invalid")
		return nil, fmt.Errorf("%w: advance payment %d outside 0..%d", domain.ErrInvalidRequest, in.AdvancePayment, total)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.holdDuration)

	booking := &models.Booking{
		Reference:        uuid.NewString(),
		CustomerID:       in.CustomerID,
		Date:             in.Date,
		SlotHours:        hours,
		Slots:            slots,
		TotalAmount:      total,
		AdvancePayment:   in.AdvancePayment,
		RemainingPayment: total - in.AdvancePayment,
		PaymentMethod:    in.PaymentMethod,
		PaymentProofRef:  in.PaymentProofRef,
		PendingExpiresAt: &expiresAt,
		CreatedAt:        now,
	}

	if err := s.store.CreateBookingHold(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrSlotConflict) {
			metrics.IncReservation("conflict")
		} else {
			metrics.IncReservation("error")
		}
		return nil, err
	}
	metrics.IncReservation("success")

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("booking_number", booking.BookingNumber).
		Str("date", models.DateKey(booking.Date)).
		Ints("hours", booking.SlotHours).
		Int64("total", booking.TotalAmount).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, "customer")
	s.enqueueSync(ctx, booking)

	return booking, nil
}

// GetAvailability reports the status and price of all 24 hours of a date,
// sweeping expired holds first. Hours already started on the current date are
// overlaid with the past status and are never bookable.
func (s *ReservationService) GetAvailability(ctx context.Context, date time.Time) ([]models.HourAvailability, error) {
	if _, err := s.sweeper.SweepDate(ctx, date); err != nil {
		return nil, err
	}

	cells, err := s.store.SlotCells(ctx, date)
	if err != nil {
		return nil, err
	}

	schedule, err := s.rates.Current(ctx)
	if err != nil {
		return nil, err
	}

	byHour := make(map[int]models.SlotStatus, len(cells))
	for _, cell := range cells {
		byHour[cell.Hour] = cell.Status
	}

	now := s.clock.Now()
	entries := make([]models.HourAvailability, 0, models.HoursPerDay)
	for h := 0; h < models.HoursPerDay; h++ {
		status, ok := byHour[h]
		if !ok {
			status = models.SlotAvailable
		}
		if models.PastHour(now, date, h) {
			status = models.SlotPast
		}
		price, isNight := schedule.RateFor(h)
		entries = append(entries, models.HourAvailability{
			Hour:        h,
			Status:      status,
			Price:       price,
			IsNightRate: isNight,
		})
	}
	return entries, nil
}

func (s *ReservationService) validateRequest(in ReserveInput) ([]int, error) {
	if len(in.Hours) == 0 {
		return nil, fmt.Errorf("%w: no slot hours requested", domain.ErrInvalidRequest)
	}

	seen := make(map[int]bool, len(in.Hours))
	hours := make([]int, 0, len(in.Hours))
	for _, h := range in.Hours {
		if !models.ValidHour(h) {
			return nil, fmt.Errorf("%w: hour %d out of range", domain.ErrInvalidRequest, h)
		}
		if seen[h] {
			return nil, fmt.Errorf("%w: duplicate hour %d", domain.ErrInvalidRequest, h)
		}
		seen[h] = true
		hours = append(hours, h)
	}
	sort.Ints(hours)

	now := s.clock.Now()
	if models.DateKey(in.Date) < models.DateKey(now) {
		return nil, fmt.Errorf("%w: date %s is in the past", domain.ErrInvalidRequest, models.DateKey(in.Date))
	}
	for _, h := range hours {
		if models.PastHour(now, in.Date, h) {
			return nil, fmt.Errorf("%w: hour %d on %s has already started", domain.ErrInvalidRequest, h, models.DateKey(in.Date))
		}
	}

	return hours, nil
}

func (s *ReservationService) publishEvent(eventType string, booking *models.Booking, changedBy string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(eventType, bookingEventPayload(booking, changedBy)); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueSync(ctx context.Context, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueUpsert(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("sheets enqueue error")
	}
}
