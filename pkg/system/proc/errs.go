package proc

import "errors"

var (
	// ErrNoCPU indicates that /proc/stat had no aggregate cpu line.
	ErrNoCPU = errors.New("proc: no cpu line")

	// ErrInvalidCPUSample indicates the cpu line had fewer than MinCPUFields
	// counters or a non-numeric counter.
	ErrInvalidCPUSample = errors.New("proc: invalid cpu sample")

	// ErrProcessGone indicates /proc/<pid> vanished, usually because the
	// process exited between enumeration and read.
	ErrProcessGone = errors.New("proc: process gone")

	// ErrBadPID indicates a non-positive pid.
	ErrBadPID = errors.New("proc: bad pid")
)
