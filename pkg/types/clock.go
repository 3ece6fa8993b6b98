package types

import (
	"fmt"
	"math"
	"time"
)

// Seconds is an elapsed time in whole seconds, such as process age or
// system uptime.
type Seconds int64

// FromFloat truncates fractional seconds (uptime is reported with
// centisecond precision). Negative and NaN input yields 0.
func FromFloat(s float64) Seconds {
	if !(s > 0) || math.IsInf(s, 1) {
		return 0
	}
	return Seconds(s)
}

// Clock formats s as HH:MM:SS. Hours are not wrapped at 24, so a process
// running for four days prints 96:00:00. Negative values print 00:00:00.
func (s Seconds) Clock() string {
	if s < 0 {
		s = 0
	}
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// Duration converts s to a time.Duration.
func (s Seconds) Duration() time.Duration { return time.Duration(s) * time.Second }

func (s Seconds) String() string { return s.Clock() }
