package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
)

// GetRateSchedule returns the stored schedule, or the built-in defaults when
// nothing has been seeded yet.
func (db *DB) GetRateSchedule(ctx context.Context) (models.RateSchedule, error) {
	var s models.RateSchedule
	err := db.QueryRowContext(ctx,
		`SELECT day_rate, night_rate, night_start_hour, night_end_hour, updated_at FROM rate_schedule WHERE id = 1`,
	).Scan(&s.DayRate, &s.NightRate, &s.NightStartHour, &s.NightEndHour, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultRateSchedule(), nil
	}
	if err != nil {
		return models.RateSchedule{}, fmt.Errorf("failed to get rate schedule: %w", err)
	}
	return s, nil
}

// SeedRateSchedule inserts the schedule only when none exists yet; later
// admin updates are never overwritten by config on restart.
func (db *DB) SeedRateSchedule(ctx context.Context, s models.RateSchedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rate_schedule (id, day_rate, night_rate, night_start_hour, night_end_hour, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?)`,
		s.DayRate, s.NightRate, s.NightStartHour, s.NightEndHour, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to seed rate schedule: %w", err)
	}
	return nil
}

// UpdateRateSchedule replaces the current schedule. Existing bookings keep
// their snapshotted rates; only future reservations see the change.
func (db *DB) UpdateRateSchedule(ctx context.Context, s models.RateSchedule) (models.RateSchedule, error) {
	if err := s.Validate(); err != nil {
		return models.RateSchedule{}, err
	}
	s.UpdatedAt = time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO rate_schedule (id, day_rate, night_rate, night_start_hour, night_end_hour, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     day_rate = excluded.day_rate,
		     night_rate = excluded.night_rate,
		     night_start_hour = excluded.night_start_hour,
		     night_end_hour = excluded.night_end_hour,
		     updated_at = excluded.updated_at`,
		s.DayRate, s.NightRate, s.NightStartHour, s.NightEndHour, s.UpdatedAt,
	)
	if err != nil {
		return models.RateSchedule{}, fmt.Errorf("failed to update rate schedule: %w", err)
	}
	return s, nil
}
