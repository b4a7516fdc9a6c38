package repository

import (
	"context"
	"sync"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
)

// MemoryRateRepository is the in-process cache used when Redis is not
// configured or unavailable.
type MemoryRateRepository struct {
	source ScheduleSource
	ttl    time.Duration

	mu       sync.RWMutex
	cached   models.RateSchedule
	loadedAt time.Time
	valid    bool
}

func NewMemoryRateRepository(source ScheduleSource, ttl time.Duration) *MemoryRateRepository {
	return &MemoryRateRepository{
		source: source,
		ttl:    ttl,
	}
}

func (r *MemoryRateRepository) Current(ctx context.Context) (models.RateSchedule, error) {
	r.mu.RLock()
	if r.valid && time.Since(r.loadedAt) < r.ttl {
		schedule := r.cached
		r.mu.RUnlock()
		return schedule, nil
	}
	r.mu.RUnlock()

	schedule, err := r.source.GetRateSchedule(ctx)
	if err != nil {
		return models.RateSchedule{}, err
	}

	r.mu.Lock()
	r.cached = schedule
	r.loadedAt = time.Now()
	r.valid = true
	r.mu.Unlock()

	return schedule, nil
}

func (r *MemoryRateRepository) Invalidate(ctx context.Context) error {
	r.mu.Lock()
	r.valid = false
	r.mu.Unlock()
	return nil
}
