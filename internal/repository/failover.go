package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/rs/zerolog"
)

// FailoverRateRepository serves rates from the primary (Redis) provider and
// falls back to the in-memory one when it errors, retrying the primary after
// a minute.
type FailoverRateRepository struct {
	primary   domain.RateProvider
	fallback  domain.RateProvider
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed primary attempt
}

func NewFailoverRateRepository(primary, fallback domain.RateProvider, logger *zerolog.Logger) *FailoverRateRepository {
	return &FailoverRateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverRateRepository) Current(ctx context.Context) (models.RateSchedule, error) {
	if !r.isDown.Load() {
		schedule, err := r.primary.Current(ctx)
		if err == nil {
			return schedule, nil
		}
		r.logger.Error().Err(err).Msg("primary rate repository failed, falling back to memory")
		r.markDown()
	}

	if r.shouldRetryPrimary() {
		schedule, err := r.primary.Current(ctx)
		if err == nil {
			r.isDown.Store(false)
			return schedule, nil
		}
		r.markDown()
	}

	return r.fallback.Current(ctx)
}

// Invalidate clears both caches so the next read hits the store.
func (r *FailoverRateRepository) Invalidate(ctx context.Context) error {
	if err := r.fallback.Invalidate(ctx); err != nil {
		return err
	}
	if !r.isDown.Load() {
		if err := r.primary.Invalidate(ctx); err != nil {
			r.logger.Error().Err(err).Msg("failed to invalidate primary rate cache")
			r.markDown()
		}
	}
	return nil
}

func (r *FailoverRateRepository) markDown() {
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverRateRepository) shouldRetryPrimary() bool {
	return r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}
