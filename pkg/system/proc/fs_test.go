package proc_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/procmon/pkg/metrics"
	"github.com/ja7ad/procmon/pkg/system/cgroup"
	"github.com/ja7ad/procmon/pkg/system/proc"
	"github.com/ja7ad/procmon/pkg/system/proc/proctest"
	"github.com/ja7ad/procmon/pkg/system/source"
)

func TestFS_PIDs(t *testing.T) {
	tr := proctest.New(t)
	tr.Process(proctest.Proc{PID: 1, Comm: "init"}).
		Process(proctest.Proc{PID: 42, Comm: "bash"}).
		Write("sys/kernel/pid_max", "32768\n").
		Write("uptime", "1 1\n")

	pids, err := tr.FS().PIDs()
	require.NoError(t, err)
	sort.Ints(pids)
	assert.Equal(t, []int{1, 42}, pids)
}

func TestFS_PIDs_MissingRoot(t *testing.T) {
	fs := proc.NewFS(proc.Paths{Root: t.TempDir() + "/nope"})
	_, err := fs.PIDs()
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrUnavailable))
}

func TestFS_ReadProcess(t *testing.T) {
	tr := proctest.New(t)
	tr.Process(proctest.Proc{
		PID: 42, PPID: 1, Comm: "python3", State: "R", UID: 1000,
		VmSizeKB: 20480, VmRSSKB: 8192,
		Cmdline: []string{"/usr/bin/python3", "-m", "http.server"},
		UTime:   300, STime: 100, StartTicks: 5000,
	})

	p, err := tr.FS().ReadProcess(42)
	require.NoError(t, err)
	assert.Equal(t, 42, p.PID)
	assert.Equal(t, 1, p.PPID)
	assert.Equal(t, "python3", p.Comm)
	assert.Equal(t, "R", p.State)
	assert.Equal(t, "1000", p.UID)
	assert.Equal(t, int64(20480), p.ResidentKB)
	assert.Equal(t, int64(8192), p.RSSKB)
	assert.Equal(t, "/usr/bin/python3 -m http.server", p.Command)
	assert.Equal(t, uint64(400), p.CPUTicks)
	assert.True(t, p.StartKnown)
	assert.Equal(t, uint64(5000), p.StartTicks)
}

func TestFS_ReadProcess_Degraded(t *testing.T) {
	t.Run("kernel_thread", func(t *testing.T) {
		tr := proctest.New(t)
		tr.Process(proctest.Proc{PID: 2, Comm: "kthreadd"})
		p, err := tr.FS().ReadProcess(2)
		require.NoError(t, err)
		assert.Equal(t, proc.UnknownKB, p.ResidentKB)
		assert.Empty(t, p.Command)
		assert.True(t, p.KernelThread())
	})
	t.Run("short_stat", func(t *testing.T) {
		tr := proctest.New(t)
		tr.Process(proctest.Proc{PID: 7, Comm: "short", VmSizeKB: 100})
		tr.Write("7/stat", "7 (short) S 1 7 7 0 -1 4194560 50\n")
		p, err := tr.FS().ReadProcess(7)
		require.NoError(t, err)
		assert.Zero(t, p.CPUTicks)
		assert.False(t, p.StartKnown)
		assert.Equal(t, int64(100), p.ResidentKB)
	})
	t.Run("status_only", func(t *testing.T) {
		tr := proctest.New(t)
		tr.Process(proctest.Proc{PID: 9, PPID: 3, Comm: "worker", UID: 33, VmSizeKB: 64})
		tr.Remove("9/stat")
		p, err := tr.FS().ReadProcess(9)
		require.NoError(t, err)
		assert.Equal(t, "worker", p.Comm)
		assert.Equal(t, 3, p.PPID)
		assert.Equal(t, "33", p.UID)
	})
	t.Run("gone", func(t *testing.T) {
		tr := proctest.New(t)
		_, err := tr.FS().ReadProcess(999)
		assert.True(t, errors.Is(err, proc.ErrProcessGone))
	})
	t.Run("bad_pid", func(t *testing.T) {
		_, err := proctest.New(t).FS().ReadProcess(0)
		assert.True(t, errors.Is(err, proc.ErrBadPID))
	})
}

func TestFS_ReadProcesses(t *testing.T) {
	tr := proctest.New(t)
	for _, pid := range []int{1, 2, 3, 4, 5} {
		tr.Process(proctest.Proc{PID: pid, Comm: "p", VmSizeKB: 10})
	}
	tr.Remove("3")

	got, err := tr.FS().ReadProcesses(context.Background(), []int{5, 4, 3, 2, 1}, 2)
	require.NoError(t, err)
	pids := make([]int, 0, len(got))
	for _, p := range got {
		pids = append(pids, p.PID)
	}
	assert.Equal(t, []int{5, 4, 2, 1}, pids, "vanished pid dropped, order kept")

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tr.FS().ReadProcesses(ctx, []int{1, 2}, 1)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestFS_System(t *testing.T) {
	tr := proctest.New(t)
	tr.Stat("100 0 100 800 0 0 0 0 0 0", 4, 8123, 3).
		MemInfo(1000000, 400000).
		Uptime(3661.5).
		Version("6.1.0-13-amd64").
		Write("self/mountinfo", "30 23 0:26 / /sys/fs/cgroup rw,nosuid - cgroup2 cgroup2 rw\n").
		WriteEtc("os-release", "NAME=\"Ubuntu\"\nPRETTY_NAME=\"Ubuntu 20.04 LTS\"\n")

	s := tr.FS().System()
	assert.Equal(t, "Ubuntu 20.04 LTS", s.OSName)
	assert.Equal(t, "6.1.0-13-amd64", s.Kernel)
	assert.InDelta(t, 3661.5, s.UptimeSeconds, 1e-9)
	assert.Equal(t, 8123, s.TotalProcesses)
	assert.Equal(t, 3, s.RunningProcesses)
	assert.Equal(t, 4, s.CPUCount)
	assert.InDelta(t, 0.6, float64(s.MemoryUtilization), 1e-9)
	assert.Equal(t, metrics.NoData, s.CPUUtilization)
	assert.Equal(t, cgroup.V2, s.Cgroup)

	cpu, err := tr.FS().CPU()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), cpu.Total())
}

func TestFS_System_EmptyTree(t *testing.T) {
	tr := proctest.New(t)
	s := tr.FS().System()
	assert.Empty(t, s.OSName)
	assert.Empty(t, s.Kernel)
	assert.Zero(t, s.UptimeSeconds)
	assert.Zero(t, s.TotalProcesses)
	assert.Equal(t, metrics.NoData, s.MemoryUtilization)
	assert.Equal(t, cgroup.Unsupported, s.Cgroup)

	_, err := tr.FS().CPU()
	assert.True(t, errors.Is(err, source.ErrUnavailable))
}
