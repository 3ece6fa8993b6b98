// Package monitor is the refresh loop around package proc. A Monitor keeps
// exactly the state a two-sample rate needs: the previous aggregate CPU
// sample, the previous CPU ticks of every live pid and the time of the
// previous poll. Everything else is read fresh on each Poll.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/ja7ad/procmon/pkg/metrics"
	"github.com/ja7ad/procmon/pkg/system/proc"
	"github.com/ja7ad/procmon/pkg/system/user"
	"github.com/ja7ad/procmon/pkg/types"
)

// MinRateWindow is the shortest poll interval over which rates are reported.
// Below it jiffy granularity turns one tick into a spike, so rates are NoData.
const MinRateWindow = 100 * time.Millisecond

// ErrNoProcfs indicates the procfs root could not be listed.
var ErrNoProcfs = errors.New("monitor: procfs unavailable")

// Resolver maps a uid to a user name, "" when unknown.
type Resolver interface {
	Name(uid string) string
}

// Row is one process in a Frame.
type Row struct {
	PID   int    `json:"pid"`
	PPID  int    `json:"ppid"`
	UID   string `json:"uid"`
	User  string `json:"user"`
	Comm  string `json:"comm"`
	State string `json:"state"`

	// CPU is the share of one CPU used since the previous poll. It can
	// exceed 1 for multithreaded processes.
	CPU metrics.Ratio `json:"cpu"`
	// CPUAverage is the share of one CPU used over the process lifetime.
	CPUAverage metrics.Ratio `json:"cpu_average"`

	ResidentKB int64 `json:"resident_kb"`
	RSSKB      int64 `json:"rss_kb"`

	// Elapsed is how long the process has been running, 0 when unknown.
	Elapsed types.Seconds `json:"elapsed_seconds"`
	Command string        `json:"command"`
}

// Frame is the result of one Poll.
type Frame struct {
	At time.Time `json:"time"`
	// Interval is the wall time the rates were computed over, 0 when no
	// rate could be computed.
	Interval time.Duration       `json:"interval"`
	System   proc.SystemSnapshot `json:"system"`
	Rows     []Row               `json:"processes"`
}

type pidState struct {
	ticks      uint64
	start      uint64
	startKnown bool
}

// Monitor produces Frames. Poll is safe for concurrent use, though calls are
// serialized.
type Monitor struct {
	fs       proc.FS
	log      *slog.Logger
	users    Resolver
	now      func() time.Time
	tickRate int64
	parallel int

	hideKernel bool
	alpha      float64

	mu      sync.Mutex
	ema     *metrics.EMA
	prevAt  time.Time
	prevCPU proc.CPUSample
	haveCPU bool
	prev    map[int]pidState
}

// New returns a Monitor over fs.
func New(fs proc.FS, opts ...Option) *Monitor {
	m := &Monitor{
		fs:       fs,
		log:      discardLogger(),
		now:      time.Now,
		parallel: 2 * runtime.NumCPU(),
		prev:     make(map[int]pidState),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.users == nil {
		m.users = user.NewCache(fs.Paths().Passwd)
	}
	if m.tickRate <= 0 {
		m.tickRate = proc.ClockTicks()
	}
	if m.alpha > 0 && m.alpha < 1 {
		m.ema = metrics.NewEMA(m.alpha)
	}
	return m
}

// Poll samples the system and every visible process. The first Poll, and any
// Poll less than MinRateWindow after the last one that advanced the
// baseline, reports NoData for CPU rates. A too-short poll does not move the
// baseline, so rapid polling still yields rates once enough time passes.
func (m *Monitor) Poll(ctx context.Context) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now()
	elapsed := metrics.Elapsed(m.prevAt, at)
	advance := m.prevAt.IsZero() || elapsed >= MinRateWindow
	rated := !m.prevAt.IsZero() && elapsed >= MinRateWindow

	f := Frame{At: at, System: m.fs.System()}
	if rated {
		f.Interval = elapsed
	}

	cpu, err := m.fs.CPU()
	switch {
	case err != nil:
		m.log.Debug("cpu sample unavailable", "err", err)
	case rated && m.haveCPU:
		u := metrics.CPUUtilization(m.prevCPU, cpu)
		if m.ema != nil {
			u = m.ema.Next(u)
		}
		f.System.CPUUtilization = u
	}
	if err == nil && (advance || !m.haveCPU) {
		m.prevCPU, m.haveCPU = cpu, true
	}

	pids, err := m.fs.PIDs()
	if err != nil {
		return f, fmt.Errorf("%w: %w", ErrNoProcfs, err)
	}
	snaps, err := m.fs.ReadProcesses(ctx, pids, m.parallel)
	if err != nil {
		return f, err
	}
	if skipped := len(pids) - len(snaps); skipped > 0 {
		m.log.Debug("processes vanished during poll", "count", skipped)
	}

	next := make(map[int]pidState, len(snaps))
	f.Rows = make([]Row, 0, len(snaps))
	for _, p := range snaps {
		st := pidState{ticks: p.CPUTicks, start: p.StartTicks, startKnown: p.StartKnown}
		old, seen := m.prev[p.PID]
		if !advance && seen && old.sameProcess(st) {
			next[p.PID] = old
		} else {
			next[p.PID] = st
		}

		if m.hideKernel && p.KernelThread() {
			continue
		}
		r := m.row(p, f.System.UptimeSeconds)
		if rated && seen && old.sameProcess(st) {
			r.CPU = metrics.ProcessCPURate(old.ticks, p.CPUTicks, m.tickRate, elapsed)
		}
		f.Rows = append(f.Rows, r)
	}
	m.prev = next
	if advance {
		m.prevAt = at
	}
	return f, nil
}

// sameProcess reports whether s describes the same process as p: a pid
// reused by a new process has a different start time.
func (p pidState) sameProcess(s pidState) bool {
	return p.startKnown && s.startKnown && p.start == s.start
}

func (m *Monitor) row(p proc.ProcessSnapshot, uptime float64) Row {
	r := Row{
		PID:        p.PID,
		PPID:       p.PPID,
		UID:        p.UID,
		Comm:       p.Comm,
		State:      p.State,
		CPU:        metrics.NoData,
		CPUAverage: metrics.NoData,
		ResidentKB: p.ResidentKB,
		RSSKB:      p.RSSKB,
		Command:    p.Command,
	}
	if p.UID != "" {
		r.User = m.users.Name(p.UID)
	}
	if p.StartKnown && uptime > 0 {
		r.CPUAverage = metrics.ProcessCPUAverage(p.CPUTicks, p.StartTicks, uptime, m.tickRate)
		r.Elapsed = types.FromFloat(metrics.ElapsedSeconds(p.StartTicks, uptime, m.tickRate))
	}
	return r
}

// Stream polls immediately and then every interval until ctx is done,
// delivering frames on the returned channel, which is closed on exit. Poll
// errors are logged and the tick is skipped. A consumer slower than interval
// sees the latest frames only; ticks that arrive while a send is pending are
// dropped by the ticker.
func (m *Monitor) Stream(ctx context.Context, interval time.Duration) <-chan Frame {
	if interval < MinRateWindow {
		interval = MinRateWindow
	}
	out := make(chan Frame)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			f, err := m.Poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				m.log.Warn("poll failed", "err", err)
			} else {
				select {
				case out <- f:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}
