package service

import (
	"context"
	"fmt"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/rs/zerolog"
)

// RateService exposes the rate schedule for reads (via the cache chain) and
// admin updates (straight to the store, then cache invalidation). Updates
// never touch existing bookings; every booking keeps the rates it was priced
// at.
type RateService struct {
	store  domain.Store
	cache  domain.RateProvider
	logger *zerolog.Logger
}

func NewRateService(store domain.Store, cache domain.RateProvider, logger *zerolog.Logger) *RateService {
	return &RateService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (s *RateService) Get(ctx context.Context) (models.RateSchedule, error) {
	return s.cache.Current(ctx)
}

func (s *RateService) Update(ctx context.Context, schedule models.RateSchedule) (models.RateSchedule, error) {
	if err := schedule.Validate(); err != nil {
		return models.RateSchedule{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	updated, err := s.store.UpdateRateSchedule(ctx, schedule)
	if err != nil {
		return models.RateSchedule{}, err
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		// The cache is TTL-bound, so a failed invalidation only delays the
		// new schedule, it never corrupts it.
		s.logger.Error().Err(err).Msg("failed to invalidate rate cache")
	}

	s.logger.Info().
		Int64("day_rate", updated.DayRate).
		Int64("night_rate", updated.NightRate).
		Int("night_start", updated.NightStartHour).
		Int("night_end", updated.NightEndHour).
		Msg("rate schedule updated")

	return updated, nil
}
