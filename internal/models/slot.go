package models

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotPending   SlotStatus = "pending"
	SlotBooked    SlotStatus = "booked"
	// SlotPast overlays the underlying status for hours that already started
	// on the current date. Past slots are never bookable.
	SlotPast SlotStatus = "past"
)

// SlotCell is one materialized (date, hour) ledger row. Cells exist only
// while held or booked; an absent cell means the hour is available.
type SlotCell struct {
	Date      time.Time  `json:"date"`
	Hour      int        `json:"hour"`
	Status    SlotStatus `json:"status"`
	BookingID int64      `json:"booking_id"`
}

// HourAvailability is one entry of the 24-hour availability view, priced from
// the current rate schedule.
type HourAvailability struct {
	Hour        int        `json:"hour"`
	Status      SlotStatus `json:"status"`
	Price       int64      `json:"price"`
	IsNightRate bool       `json:"is_night_rate"`
}

// DateKey normalizes a timestamp to the calendar-date key used across the
// ledger, booking rows and per-date locks.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDateKey parses a YYYY-MM-DD key back into a time.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse("2006-01-02", key)
}

// ValidHour reports whether h addresses one of the 24 hourly slots.
func ValidHour(h int) bool {
	return h >= 0 && h < HoursPerDay
}

// PastHour reports whether the given hour of date has already started at now.
// An hour equal to the current hour counts as past: its window is underway.
// Availability reads and reserve validation both go through this helper so
// they cannot disagree on what "past" means.
func PastHour(now, date time.Time, hour int) bool {
	nowKey, dateKey := DateKey(now), DateKey(date)
	if dateKey < nowKey {
		return true
	}
	if dateKey > nowKey {
		return false
	}
	return hour <= now.Hour()
}
