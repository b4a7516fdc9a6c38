package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNightHourWrapsMidnight(t *testing.T) {
	s := RateSchedule{DayRate: 1500, NightRate: 2000, NightStartHour: 18, NightEndHour: 6}

	assert.True(t, s.IsNightHour(18))
	assert.True(t, s.IsNightHour(23))
	assert.True(t, s.IsNightHour(0))
	assert.True(t, s.IsNightHour(5))

	assert.False(t, s.IsNightHour(6))
	assert.False(t, s.IsNightHour(12))
	assert.False(t, s.IsNightHour(17))
}

func TestIsNightHourNonWrapping(t *testing.T) {
	s := RateSchedule{DayRate: 1000, NightRate: 1200, NightStartHour: 20, NightEndHour: 23}

	assert.True(t, s.IsNightHour(20))
	assert.True(t, s.IsNightHour(22))
	assert.False(t, s.IsNightHour(23))
	assert.False(t, s.IsNightHour(0))
	assert.False(t, s.IsNightHour(19))
}

func TestRateFor(t *testing.T) {
	s := DefaultRateSchedule()

	rate, isNight := s.RateFor(12)
	assert.Equal(t, int64(DefaultDayRate), rate)
	assert.False(t, isNight)

	rate, isNight = s.RateFor(22)
	assert.Equal(t, int64(DefaultNightRate), rate)
	assert.True(t, isNight)
}

func TestRateScheduleValidate(t *testing.T) {
	assert.NoError(t, DefaultRateSchedule().Validate())

	bad := RateSchedule{DayRate: 0, NightRate: 2000, NightStartHour: 18, NightEndHour: 6}
	assert.Error(t, bad.Validate())

	bad = RateSchedule{DayRate: 1500, NightRate: -1, NightStartHour: 18, NightEndHour: 6}
	assert.Error(t, bad.Validate())

	bad = RateSchedule{DayRate: 1500, NightRate: 2000, NightStartHour: 24, NightEndHour: 6}
	assert.Error(t, bad.Validate())
}

func TestPastHour(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	// Any hour of an earlier date is past.
	assert.True(t, PastHour(now, yesterday, 23))

	// On the current date the running hour counts as past.
	assert.True(t, PastHour(now, now, 13))
	assert.True(t, PastHour(now, now, 14))
	assert.False(t, PastHour(now, now, 15))

	// Future dates are never past.
	assert.False(t, PastHour(now, tomorrow, 0))
}

func TestHoldExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	b := &Booking{Status: StatusPending, PendingExpiresAt: &past}
	assert.True(t, b.HoldExpired(now))

	b.PendingExpiresAt = &future
	assert.False(t, b.HoldExpired(now))

	b.Status = StatusApproved
	b.PendingExpiresAt = &past
	assert.False(t, b.HoldExpired(now))

	b.Status = StatusPending
	b.PendingExpiresAt = nil
	assert.False(t, b.HoldExpired(now))
}

func TestDateKeyRoundTrip(t *testing.T) {
	day, err := ParseDateKey("2025-06-15")
	assert.NoError(t, err)
	assert.Equal(t, "2025-06-15", DateKey(day))

	_, err = ParseDateKey("15.06.2025")
	assert.Error(t, err)
}
