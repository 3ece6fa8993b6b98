package proc

import (
	"fmt"
	"strings"

	"github.com/ja7ad/procmon/pkg/system/field"
	"github.com/ja7ad/procmon/pkg/system/source"
)

const (
	// MinCPUFields is the legacy cpu row: user..steal.
	MinCPUFields = 8
	// MaxCPUFields adds guest and guest_nice (2.6.24+, 2.6.33+).
	MaxCPUFields = 10
)

// CPUSample holds the cumulative jiffy counters of the aggregate cpu row of
// /proc/stat. Counters only grow while the system runs, so a single sample
// says nothing about current load; feed two of them to
// metrics.CPUUtilization.
type CPUSample struct {
	User      uint64 `json:"user"`
	Nice      uint64 `json:"nice"`
	System    uint64 `json:"system"`
	Idle      uint64 `json:"idle"`
	IOWait    uint64 `json:"iowait"`
	IRQ       uint64 `json:"irq"`
	SoftIRQ   uint64 `json:"softirq"`
	Steal     uint64 `json:"steal"`
	Guest     uint64 `json:"guest"`
	GuestNice uint64 `json:"guest_nice"`

	// Fields is the number of counters present on the row (8 or 10).
	Fields int `json:"fields"`
}

// Total is the sum of all counters.
func (s CPUSample) Total() uint64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait +
		s.IRQ + s.SoftIRQ + s.Steal + s.Guest + s.GuestNice
}

// IdleTicks is idle + iowait.
func (s CPUSample) IdleTicks() uint64 { return s.Idle + s.IOWait }

// Active is Total minus IdleTicks.
func (s CPUSample) Active() uint64 {
	t, idle := s.Total(), s.IdleTicks()
	if idle > t {
		return 0
	}
	return t - idle
}

// ParseCPULine binds the counters of a "cpu ..." row positionally. Tokens
// beyond MaxCPUFields are ignored. Fewer than MinCPUFields counters, or any
// non-numeric counter, yields ErrInvalidCPUSample rather than partial data.
func ParseCPULine(line string) (CPUSample, error) {
	toks := strings.Fields(line)
	if len(toks) == 0 || !strings.HasPrefix(toks[0], "cpu") {
		return CPUSample{}, ErrNoCPU
	}
	vals := toks[1:]
	if len(vals) < MinCPUFields {
		return CPUSample{}, fmt.Errorf("%w: %d fields", ErrInvalidCPUSample, len(vals))
	}
	if len(vals) > MaxCPUFields {
		vals = vals[:MaxCPUFields]
	}

	var c [MaxCPUFields]uint64
	for i, s := range vals {
		v, ok := field.ParseUint(s)
		if !ok {
			return CPUSample{}, fmt.Errorf("%w: field %d %q", ErrInvalidCPUSample, i+1, s)
		}
		c[i] = v
	}
	return CPUSample{
		User: c[0], Nice: c[1], System: c[2], Idle: c[3], IOWait: c[4],
		IRQ: c[5], SoftIRQ: c[6], Steal: c[7], Guest: c[8], GuestNice: c[9],
		Fields: len(vals),
	}, nil
}

// ParseCPU finds the aggregate "cpu" row among /proc/stat lines.
func ParseCPU(lines []string) (CPUSample, error) {
	for _, l := range lines {
		fs := strings.Fields(l)
		if len(fs) > 0 && fs[0] == "cpu" {
			return ParseCPULine(l)
		}
	}
	return CPUSample{}, ErrNoCPU
}

// CountCPUs returns the number of per-core "cpuN" rows.
func CountCPUs(lines []string) int {
	n := 0
	for _, l := range lines {
		if len(l) > 3 && strings.HasPrefix(l, "cpu") && l[3] >= '0' && l[3] <= '9' {
			n++
		}
	}
	return n
}

// CPU reads the aggregate cpu sample from <root>/stat.
func (fs FS) CPU() (CPUSample, error) {
	lines, err := source.Lines(fs.Path("stat"))
	if err != nil {
		return CPUSample{}, err
	}
	return ParseCPU(lines)
}
