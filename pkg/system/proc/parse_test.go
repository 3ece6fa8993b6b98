package proc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/procmon/pkg/metrics"
)

func TestParseCPULine(t *testing.T) {
	t.Run("extended_10_fields", func(t *testing.T) {
		s, err := ParseCPULine("cpu  100 5 50 800 20 3 2 1 7 4")
		require.NoError(t, err)
		assert.Equal(t, 10, s.Fields)
		assert.Equal(t, uint64(992), s.Total())
		assert.Equal(t, uint64(820), s.IdleTicks())
		assert.Equal(t, uint64(172), s.Active())
		assert.Equal(t, uint64(4), s.GuestNice)
	})
	t.Run("legacy_8_fields", func(t *testing.T) {
		s, err := ParseCPULine("cpu 1 2 3 4 5 6 7 8")
		require.NoError(t, err)
		assert.Equal(t, 8, s.Fields)
		assert.Zero(t, s.Guest)
		assert.Equal(t, uint64(36), s.Total())
	})
	t.Run("extra_fields_ignored", func(t *testing.T) {
		s, err := ParseCPULine("cpu 1 1 1 1 1 1 1 1 1 1 99 99")
		require.NoError(t, err)
		assert.Equal(t, uint64(10), s.Total())
	})
	t.Run("too_short", func(t *testing.T) {
		_, err := ParseCPULine("cpu 1 2 3 4 5 6 7")
		assert.True(t, errors.Is(err, ErrInvalidCPUSample))
	})
	t.Run("non_numeric", func(t *testing.T) {
		_, err := ParseCPULine("cpu 1 2 x 4 5 6 7 8")
		assert.True(t, errors.Is(err, ErrInvalidCPUSample))
	})
	t.Run("not_a_cpu_row", func(t *testing.T) {
		_, err := ParseCPULine("intr 1 2 3")
		assert.True(t, errors.Is(err, ErrNoCPU))
	})
}

func TestParseCPU(t *testing.T) {
	lines := []string{
		"cpu0 1 1 1 1 1 1 1 1",
		"cpu  2 2 2 2 2 2 2 2",
		"cpu1 1 1 1 1 1 1 1 1",
		"processes 10",
	}
	s, err := ParseCPU(lines)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), s.Total(), "aggregate row, not cpu0")
	assert.Equal(t, 2, CountCPUs(lines))

	_, err = ParseCPU([]string{"cpu0 1 1 1 1 1 1 1 1"})
	assert.True(t, errors.Is(err, ErrNoCPU))
}

func TestCPUSample_Utilization(t *testing.T) {
	prev, err := ParseCPULine("cpu 100 0 100 800 0 0 0 0")
	require.NoError(t, err)
	cur, err := ParseCPULine("cpu 150 0 150 900 0 0 0 0")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, float64(metrics.CPUUtilization(prev, cur)), 1e-9)
	assert.Equal(t, metrics.NoData, metrics.CPUUtilization(cur, cur))
}

func TestParseStat(t *testing.T) {
	t.Run("full_line", func(t *testing.T) {
		line := "4242 (my (odd) proc) R 1 4242 4242 0 -1 4194304 100 0 0 0 " +
			"30 20 5 5 20 0 1 0 5000 1000000 200 18446744073709551615"
		st := ParseStat(line)
		assert.Equal(t, 4242, st.PID)
		assert.Equal(t, "my (odd) proc", st.Comm)
		assert.Equal(t, "R", st.State)
		assert.Equal(t, 1, st.PPID)
		assert.Equal(t, uint64(60), st.CPUTicks)
		assert.True(t, st.StartKnown)
		assert.Equal(t, uint64(5000), st.StartTicks)
	})
	t.Run("ten_tokens", func(t *testing.T) {
		st := ParseStat("1 (init) S 0 1 1 0 -1 4194560 50")
		assert.Equal(t, 10, st.Tokens)
		assert.Zero(t, st.CPUTicks)
		assert.False(t, st.StartKnown)
	})
	t.Run("cpu_but_no_start", func(t *testing.T) {
		st := ParseStat("1 (init) S 0 1 1 0 -1 4194560 50 0 0 0 7 3 0 0")
		assert.Equal(t, uint64(10), st.CPUTicks)
		assert.False(t, st.StartKnown)
	})
	t.Run("malformed_counter_counts_zero", func(t *testing.T) {
		st := ParseStat("1 (init) S 0 1 1 0 -1 4194560 50 0 0 0 bad 3 0 0")
		assert.Equal(t, uint64(3), st.CPUTicks)
	})
	t.Run("empty", func(t *testing.T) {
		st := ParseStat("")
		assert.Zero(t, st.PID)
		assert.Zero(t, st.CPUTicks)
	})
}

func TestParseCmdline(t *testing.T) {
	assert.Equal(t, "/usr/bin/python3 -m http.server", ParseCmdline("/usr/bin/python3\x00-m\x00http.server\x00"))
	assert.Equal(t, "", ParseCmdline(""))
}

func TestParsePID(t *testing.T) {
	for name, want := range map[string]int{"1": 1, "42": 42, "007": 7} {
		pid, ok := ParsePID(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, pid, name)
	}
	for _, name := range []string{"", "0", "self", "thread-self", "-1", "12a", "+3"} {
		_, ok := ParsePID(name)
		assert.False(t, ok, name)
	}
}

func TestParseMemInfo(t *testing.T) {
	t.Run("mem_available", func(t *testing.T) {
		m := ParseMemInfo([]string{
			"MemTotal:        1000000 kB",
			"MemFree:          100000 kB",
			"MemAvailable:     400000 kB",
		})
		assert.Equal(t, int64(1000000), m.TotalKB)
		assert.Equal(t, int64(400000), m.AvailableKB)
		assert.InDelta(t, 0.6, float64(m.Utilization()), 1e-9)
	})
	t.Run("old_kernel_estimate", func(t *testing.T) {
		m := ParseMemInfo([]string{
			"MemTotal:  1000 kB",
			"MemFree:    100 kB",
			"Buffers:     50 kB",
			"Cached:     250 kB",
			"SwapCached: 999 kB",
		})
		assert.Equal(t, int64(400), m.AvailableKB)
	})
	t.Run("zero_total", func(t *testing.T) {
		assert.Equal(t, metrics.NoData, ParseMemInfo(nil).Utilization())
	})
}

func TestParseOSRelease(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  string
	}{
		{"quoted", []string{`NAME="Ubuntu"`, `PRETTY_NAME="Ubuntu 20.04 LTS"`}, "Ubuntu 20.04 LTS"},
		{"quoted_keeps_underscore", []string{`PRETTY_NAME="my_distro 1"`}, "my_distro 1"},
		{"unquoted_underscores", []string{"PRETTY_NAME=Arch_Linux"}, "Arch Linux"},
		{"single_quoted", []string{"PRETTY_NAME='Alpine Linux v3.19'"}, "Alpine Linux v3.19"},
		{"name_fallback", []string{`NAME="Debian GNU/Linux"`}, "Debian GNU/Linux"},
		{"missing", []string{"ID=void"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseOSRelease(tc.lines))
		})
	}
}

func TestParseKernel(t *testing.T) {
	assert.Equal(t, "6.1.0-13-amd64", ParseKernel("Linux version 6.1.0-13-amd64 (debian-kernel@lists.debian.org) #1 SMP"))
	assert.Equal(t, "", ParseKernel("Linux version"))
}

func TestParseUptime(t *testing.T) {
	v, ok := ParseUptime("12345.67 54321.00")
	assert.True(t, ok)
	assert.InDelta(t, 12345.67, v, 1e-9)

	_, ok = ParseUptime("")
	assert.False(t, ok)
	_, ok = ParseUptime("-3 1")
	assert.False(t, ok)
}

func TestParseProcessCounts(t *testing.T) {
	total, running := ParseProcessCounts([]string{"cpu 1 2 3", "processes 8123", "procs_running 3", "procs_blocked 1"})
	assert.Equal(t, 8123, total)
	assert.Equal(t, 3, running)

	total, running = ParseProcessCounts(nil)
	assert.Zero(t, total)
	assert.Zero(t, running)
}

func TestProcessSnapshot_Helpers(t *testing.T) {
	k := ProcessSnapshot{ResidentKB: UnknownKB}
	assert.True(t, k.KernelThread())
	_, ok := k.Resident()
	assert.False(t, ok)

	p := ProcessSnapshot{ResidentKB: 2048, Command: "sleep 1"}
	assert.False(t, p.KernelThread())
	b, ok := p.Resident()
	assert.True(t, ok)
	assert.Equal(t, "2.00 MB", b.Humanized())
}

func TestNewFS_Defaults(t *testing.T) {
	fs := NewFS(Paths{})
	assert.Equal(t, Paths{Root: DefaultRoot, OSRelease: DefaultOSRelease, Passwd: DefaultPasswd}, fs.Paths())
	assert.Equal(t, "/proc/12/stat", fs.pidPath(12, "stat"))
}

func TestDefaultPaths_Env(t *testing.T) {
	t.Setenv("PROCMON_PROC_ROOT", "/tmp/p")
	t.Setenv("PROCMON_OS_RELEASE", "")
	t.Setenv("PROCMON_PASSWD", "/tmp/passwd")
	p := DefaultPaths()
	assert.Equal(t, "/tmp/p", p.Root)
	assert.Equal(t, DefaultOSRelease, p.OSRelease)
	assert.Equal(t, "/tmp/passwd", p.Passwd)
}

func TestClockTicks_Env(t *testing.T) {
	t.Setenv("CLK_TCK", "250")
	assert.Equal(t, int64(250), ClockTicks())

	t.Setenv("CLK_TCK", "garbage")
	assert.Greater(t, ClockTicks(), int64(0))
}
