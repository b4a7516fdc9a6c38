package models

import (
	"fmt"
	"time"
)

// RateSchedule is the admin-editable pricing configuration. The night window
// may wrap past midnight (start 18, end 6 means 18:00 to 06:00).
type RateSchedule struct {
	DayRate        int64     `json:"day_rate" yaml:"day_rate"`
	NightRate      int64     `json:"night_rate" yaml:"night_rate"`
	NightStartHour int       `json:"night_start_hour" yaml:"night_start_hour"`
	NightEndHour   int       `json:"night_end_hour" yaml:"night_end_hour"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"-"`
}

// DefaultRateSchedule returns the schedule seeded at first start.
func DefaultRateSchedule() RateSchedule {
	return RateSchedule{
		DayRate:        DefaultDayRate,
		NightRate:      DefaultNightRate,
		NightStartHour: DefaultNightStartHour,
		NightEndHour:   DefaultNightEndHour,
	}
}

// IsNightHour reports whether hour falls inside the night window,
// handling windows that wrap past midnight.
func (s RateSchedule) IsNightHour(hour int) bool {
	if s.NightStartHour > s.NightEndHour {
		return hour >= s.NightStartHour || hour < s.NightEndHour
	}
	return hour >= s.NightStartHour && hour < s.NightEndHour
}

// RateFor returns the per-hour price and whether the night rate applied.
func (s RateSchedule) RateFor(hour int) (int64, bool) {
	if s.IsNightHour(hour) {
		return s.NightRate, true
	}
	return s.DayRate, false
}

func (s RateSchedule) Validate() error {
	if s.DayRate <= 0 || s.NightRate <= 0 {
		return fmt.Errorf("rates must be positive: day=%d night=%d", s.DayRate, s.NightRate)
	}
	if !ValidHour(s.NightStartHour) || !ValidHour(s.NightEndHour) {
		return fmt.Errorf("night window hours out of range: start=%d end=%d", s.NightStartHour, s.NightEndHour)
	}
	return nil
}
