package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures the duration of one operation
type Timer struct {
	start     time.Time
	operation string
	slow      time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewTimer starts a timer. Durations above slow are logged as warnings; zero disables the warning.
func NewTimer(operation string, slow time.Duration, log zerolog.Logger) *Timer {
	t := &Timer{
		operation: operation,
		slow:      slow,
		log:       log,
		now:       time.Now,
	}
	t.start = t.now()
	return t
}

// Stop logs and returns the elapsed time
func (t *Timer) Stop() time.Duration {
	duration := t.now().Sub(t.start)

	if t.slow > 0 && duration > t.slow {
		t.log.Warn().
			Str("operation", t.operation).
			Dur("duration_ms", duration).
			Dur("threshold_ms", t.slow).
			Msg("Slow operation detected")
		return duration
	}

	t.log.Debug().
		Str("operation", t.operation).
		Dur("duration_ms", duration).
		Msg("Operation completed")
	return duration
}
