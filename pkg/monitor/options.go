package monitor

import (
	"io"
	"log/slog"
	"time"
)

// Option customizes a Monitor at creation time.
type Option func(*Monitor)

// WithLogger sets the logger for skipped sources. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}

// WithEMA smooths system CPU utilization with an exponential moving average.
// alpha outside (0,1) disables smoothing.
func WithEMA(alpha float64) Option {
	return func(m *Monitor) {
		m.alpha = alpha
	}
}

// WithHideKernel drops kernel threads (no address space, no command line)
// from frames.
func WithHideKernel(hide bool) Option {
	return func(m *Monitor) {
		m.hideKernel = hide
	}
}

// WithParallel bounds the number of processes sampled concurrently. The
// default is twice the CPU count; n <= 0 keeps it.
func WithParallel(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.parallel = n
		}
	}
}

// WithUsers replaces the uid resolver.
func WithUsers(r Resolver) Option {
	return func(m *Monitor) {
		if r != nil {
			m.users = r
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTickRate overrides the clock tick rate used for per-process rates.
func WithTickRate(hz int64) Option {
	return func(m *Monitor) {
		if hz > 0 {
			m.tickRate = hz
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
