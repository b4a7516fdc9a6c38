package worker

import (
	"context"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/service"

	"github.com/rs/zerolog"
)

// SweepLoop runs the expiry sweeper on an interval. Availability reads and
// reservations also sweep lazily, so this loop only bounds how long an
// expired hold can linger without traffic.
type SweepLoop struct {
	sweeper  *service.Sweeper
	interval time.Duration
	logger   *zerolog.Logger
}

func NewSweepLoop(sweeper *service.Sweeper, interval time.Duration, logger *zerolog.Logger) *SweepLoop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepLoop{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Start blocks until ctx is done.
func (l *SweepLoop) Start(ctx context.Context) {
	l.logger.Info().Dur("interval", l.interval).Msg("sweep loop started")
	defer l.logger.Info().Msg("sweep loop stopped")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := l.sweeper.SweepAll(ctx)
			if err != nil {
				l.logger.Error().Err(err).Msg("sweep failed")
				continue
			}
			if count > 0 {
				l.logger.Info().Int("expired", count).Msg("sweep released expired holds")
			}
		}
	}
}
