package models

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// CancelReasonExpired marks bookings cancelled by the expiry sweeper rather
// than by an admin.
const CancelReasonExpired = "expired"

const (
	// HoursPerDay is the number of bookable slots per calendar date.
	HoursPerDay = 24

	// DefaultHoldMinutes is how long a pending booking keeps its slots
	// before the sweeper releases them.
	DefaultHoldMinutes = 30

	// DefaultSweepIntervalSeconds is the background sweep cadence.
	DefaultSweepIntervalSeconds = 60

	// Default rates in whole currency units per hour.
	DefaultDayRate        = 1500
	DefaultNightRate      = 2000
	DefaultNightStartHour = 18
	DefaultNightEndHour   = 6

	// RateCacheTTLSeconds is how long the rate schedule may be served from cache.
	RateCacheTTLSeconds = 5 * 60

	// WorkerQueueSize is the in-memory buffer of the sheets sync worker.
	WorkerQueueSize = 128
)
