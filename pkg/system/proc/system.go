package proc

import (
	"errors"
	"strings"

	"github.com/ja7ad/procmon/pkg/metrics"
	"github.com/ja7ad/procmon/pkg/system/cgroup"
	"github.com/ja7ad/procmon/pkg/system/field"
	"github.com/ja7ad/procmon/pkg/system/source"
)

// SystemSnapshot aggregates host-wide state at one poll. Every field degrades
// independently: an unreadable source leaves its zero value (or NoData for
// ratios) and does not affect the others.
type SystemSnapshot struct {
	OSName string `json:"os_name"`
	Kernel string `json:"kernel"`

	UptimeSeconds float64 `json:"uptime_seconds"`

	TotalProcesses   int `json:"total_processes"`
	RunningProcesses int `json:"running_processes"`

	MemoryUtilization metrics.Ratio `json:"memory_utilization"`
	MemTotalKB        int64         `json:"mem_total_kb"`
	MemAvailableKB    int64         `json:"mem_available_kb"`

	// CPUUtilization needs two CPU samples; System leaves it NoData and the
	// refresh loop fills it in.
	CPUUtilization metrics.Ratio `json:"cpu_utilization"`
	CPUCount       int           `json:"cpu_count"`

	Cgroup cgroup.Version `json:"cgroup"`
}

// MemInfo is the part of /proc/meminfo used for the utilization ratio.
type MemInfo struct {
	TotalKB     int64 `json:"total_kb"`
	AvailableKB int64 `json:"available_kb"`
}

// Utilization returns (Total-Available)/Total or NoData when Total is 0.
func (m MemInfo) Utilization() metrics.Ratio {
	return metrics.MemoryUtilization(m.TotalKB, m.AvailableKB)
}

// ParseMemInfo reads MemTotal and MemAvailable. Kernels older than 3.14 lack
// MemAvailable; it is then estimated as MemFree+Buffers+Cached.
func ParseMemInfo(lines []string) MemInfo {
	m := MemInfo{}
	m.TotalKB, _ = field.Int(lines, "MemTotal")
	if v, ok := field.Int(lines, "MemAvailable"); ok {
		m.AvailableKB = v
		return m
	}
	free, _ := field.Int(lines, "MemFree")
	buffers, _ := field.Int(lines, "Buffers")
	cached, _ := field.Int(lines, "Cached")
	m.AvailableKB = free + buffers + cached
	return m
}

// ParseOSRelease returns PRETTY_NAME (falling back to NAME) with quotes
// stripped. In unquoted values an underscore stands for an escaped space and
// is restored; quoted values are returned verbatim.
func ParseOSRelease(lines []string) string {
	raw, ok := field.Raw(lines, "PRETTY_NAME")
	if !ok {
		if raw, ok = field.Raw(lines, "NAME"); !ok {
			return ""
		}
	}
	v := field.Unquote(raw)
	if v == strings.TrimSpace(raw) {
		v = strings.ReplaceAll(v, "_", " ")
	}
	return v
}

// ParseKernel returns the release from a "Linux version 6.1.0-13-amd64 ..."
// line: its third token.
func ParseKernel(line string) string {
	v, _ := field.Nth(line, 3)
	return v
}

// ParseUptime returns the first token of /proc/uptime: seconds since boot.
func ParseUptime(line string) (float64, bool) {
	v, ok := field.FloatAt(strings.Fields(line), 0)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseProcessCounts returns the "processes" (forks since boot) and
// "procs_running" counters of /proc/stat.
func ParseProcessCounts(lines []string) (total, running int) {
	t, _ := field.Int(lines, "processes")
	r, _ := field.Int(lines, "procs_running")
	return int(t), int(r)
}

// OSName reads the os-release descriptor.
func (fs FS) OSName() string {
	lines, err := source.Lines(fs.paths.OSRelease)
	if errors.Is(err, source.ErrUnavailable) && fs.paths.OSRelease == DefaultOSRelease {
		lines, err = source.Lines(fallbackOSRelease)
	}
	if err != nil {
		return ""
	}
	return ParseOSRelease(lines)
}

// Kernel reads the kernel release from <root>/version.
func (fs FS) Kernel() string {
	line, err := source.FirstLine(fs.Path("version"))
	if err != nil {
		return ""
	}
	return ParseKernel(line)
}

// Uptime reads <root>/uptime, 0 when unavailable.
func (fs FS) Uptime() float64 {
	line, err := source.FirstLine(fs.Path("uptime"))
	if err != nil {
		return 0
	}
	v, _ := ParseUptime(line)
	return v
}

// MemInfo reads <root>/meminfo; an unreadable file yields a zero MemInfo,
// whose Utilization is NoData.
func (fs FS) MemInfo() MemInfo {
	lines, err := source.Lines(fs.Path("meminfo"))
	if err != nil {
		return MemInfo{}
	}
	return ParseMemInfo(lines)
}

// System composes a SystemSnapshot from os-release, version, uptime, stat,
// meminfo and self/mountinfo. CPUUtilization is left as NoData.
func (fs FS) System() SystemSnapshot {
	s := SystemSnapshot{
		OSName:         fs.OSName(),
		Kernel:         fs.Kernel(),
		UptimeSeconds:  fs.Uptime(),
		CPUUtilization: metrics.NoData,
	}

	if lines, err := source.Lines(fs.Path("stat")); err == nil {
		s.TotalProcesses, s.RunningProcesses = ParseProcessCounts(lines)
		s.CPUCount = CountCPUs(lines)
	}

	m := fs.MemInfo()
	s.MemTotalKB, s.MemAvailableKB = m.TotalKB, m.AvailableKB
	s.MemoryUtilization = m.Utilization()

	s.Cgroup, _, _ = cgroup.Detect(fs.Path("self", "mountinfo"))
	return s
}
