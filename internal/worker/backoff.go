package worker

import "time"

// Backoff paces sheet mirror retries. The Sheets API throttles bursts, so
// delays double from Base up to Cap; once a task has burned through Attempts
// tries it is parked as failed and pushed to the deadletter list instead of
// hammering the API further.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
}

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 5
	}
	if b.Base <= 0 {
		b.Base = 2 * time.Second
	}
	if b.Cap <= 0 {
		b.Cap = time.Minute
	}
	return b
}

// Next returns the delay before the given attempt (1-based) is retried.
func (b Backoff) Next(attempt int) time.Duration {
	b = b.withDefaults()
	delay := b.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= b.Cap {
			return b.Cap
		}
	}
	if delay > b.Cap {
		return b.Cap
	}
	return delay
}

// Exhausted reports whether a task already attempted the given number of
// times is out of retries.
func (b Backoff) Exhausted(attempts int) bool {
	return attempts >= b.withDefaults().Attempts
}
