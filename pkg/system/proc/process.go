package proc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ja7ad/procmon/pkg/system/field"
	"github.com/ja7ad/procmon/pkg/system/source"
	"github.com/ja7ad/procmon/pkg/types"
)

// UnknownKB marks a memory figure the kernel did not report (kernel threads
// have no VmSize) or that could not be read.
const UnknownKB int64 = -1

// /proc/<pid>/stat field numbers, 1-indexed as in man 5 proc.
const (
	statPID       = 1
	statComm      = 2
	statState     = 3
	statPPID      = 4
	statUTime     = 14
	statSTime     = 15
	statCUTime    = 16
	statCSTime    = 17
	statStartTime = 22
)

// ProcessSnapshot is one process as seen at a single poll. CPUTicks and
// StartTicks are cumulative; rates come from metrics.ProcessCPURate over two
// snapshots of the same pid.
type ProcessSnapshot struct {
	PID   int    `json:"pid"`
	PPID  int    `json:"ppid"`
	Comm  string `json:"comm"`
	State string `json:"state"`
	UID   string `json:"uid"`

	// ResidentKB is the status "VmSize" figure in KiB, UnknownKB if absent.
	ResidentKB int64 `json:"resident_kb"`
	// RSSKB is the status "VmRSS" figure in KiB, UnknownKB if absent.
	RSSKB int64 `json:"rss_kb"`

	// Command is the full command line with NUL separators rendered as
	// spaces. Empty for kernel threads and zombies.
	Command string `json:"command"`

	// StartTicks is the process start time in clock ticks after boot. It is
	// meaningful only when StartKnown is set.
	StartTicks uint64 `json:"start_ticks"`
	StartKnown bool   `json:"start_known"`

	// CPUTicks is utime+stime+cutime+cstime.
	CPUTicks uint64 `json:"cpu_ticks"`
}

// Resident returns ResidentKB as bytes, ok=false when unknown.
func (p ProcessSnapshot) Resident() (types.Bytes, bool) {
	if p.ResidentKB < 0 {
		return 0, false
	}
	return types.FromKB(p.ResidentKB), true
}

// KernelThread reports whether the process looks like a kernel thread: no
// address space and no command line.
func (p ProcessSnapshot) KernelThread() bool {
	return p.ResidentKB == UnknownKB && p.Command == ""
}

// Stat is the part of /proc/<pid>/stat the monitor uses.
type Stat struct {
	PID   int
	Comm  string
	State string
	PPID  int

	UTime, STime, CUTime, CSTime uint64
	// CPUTicks is the sum of the four counters, 0 when the line is too short.
	CPUTicks uint64

	StartTicks uint64
	StartKnown bool

	// Tokens is the number of fields found on the line.
	Tokens int
}

// statTokens splits a stat line into fields numbered as in man 5 proc. The
// comm field is delimited by the first '(' and the last ')' because it may
// itself contain spaces and parentheses. Lines without parentheses fall back
// to plain whitespace splitting.
func statTokens(line string) []string {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < open {
		return strings.Fields(line)
	}
	toks := make([]string, 0, 52)
	toks = append(toks, strings.TrimSpace(line[:open]), line[open+1:closing])
	return append(toks, strings.Fields(line[closing+1:])...)
}

// ParseStat extracts pid, comm, state, ppid, CPU ticks and start time from a
// stat line. With fewer than 17 fields CPUTicks stays 0; with fewer than 22
// StartKnown is false. A malformed counter counts as 0.
func ParseStat(line string) Stat {
	toks := statTokens(line)
	nth := func(n int) (string, bool) { return field.At(toks, n-1) }
	ticks := func(n int) uint64 {
		s, _ := nth(n)
		v, _ := field.ParseUint(s)
		return v
	}

	st := Stat{Tokens: len(toks)}
	if v, ok := field.IntAt(toks, statPID-1); ok {
		st.PID = int(v)
	}
	st.Comm, _ = nth(statComm)
	st.State, _ = nth(statState)
	if v, ok := field.IntAt(toks, statPPID-1); ok {
		st.PPID = int(v)
	}

	if len(toks) >= statCSTime {
		st.UTime = ticks(statUTime)
		st.STime = ticks(statSTime)
		st.CUTime = ticks(statCUTime)
		st.CSTime = ticks(statCSTime)
		st.CPUTicks = st.UTime + st.STime + st.CUTime + st.CSTime
	}
	if len(toks) >= statStartTime {
		s, _ := nth(statStartTime)
		st.StartTicks, st.StartKnown = field.ParseUint(s)
	}
	return st
}

// ParseCmdline renders a NUL-separated cmdline as one space-separated line.
func ParseCmdline(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\x00", " "))
}

func kb(lines []string, key string) int64 {
	v, ok := field.Int(lines, key)
	if !ok || v < 0 {
		return UnknownKB
	}
	return v
}

// applyStatus fills owner and memory from /proc/<pid>/status lines. Fields
// already taken from stat are not overwritten.
func applyStatus(p *ProcessSnapshot, lines []string) {
	p.UID, _ = field.Word(lines, "Uid")
	p.ResidentKB = kb(lines, "VmSize")
	p.RSSKB = kb(lines, "VmRSS")
	if p.Comm == "" {
		p.Comm, _ = field.Value(lines, "Name")
	}
	if p.State == "" {
		p.State, _ = field.Word(lines, "State")
	}
	if p.PPID == 0 {
		if v, ok := field.Int(lines, "PPid"); ok {
			p.PPID = int(v)
		}
	}
}

// ReadProcess samples one process. It returns ErrProcessGone when neither
// stat nor status can be read; any other missing piece leaves its default
// (0, "", UnknownKB) in an otherwise valid snapshot.
func (fs FS) ReadProcess(pid int) (ProcessSnapshot, error) {
	if pid <= 0 {
		return ProcessSnapshot{}, fmt.Errorf("%w: %d", ErrBadPID, pid)
	}

	line, statErr := source.FirstLine(fs.pidPath(pid, "stat"))
	status, statusErr := source.Lines(fs.pidPath(pid, "status"))
	if statErr != nil && statusErr != nil {
		return ProcessSnapshot{}, fmt.Errorf("%w: pid %d: %w", ErrProcessGone, pid, statErr)
	}

	p := ProcessSnapshot{PID: pid, ResidentKB: UnknownKB, RSSKB: UnknownKB}
	if statErr == nil {
		st := ParseStat(line)
		p.Comm, p.State, p.PPID = st.Comm, st.State, st.PPID
		p.CPUTicks = st.CPUTicks
		p.StartTicks, p.StartKnown = st.StartTicks, st.StartKnown
	}
	if statusErr == nil {
		applyStatus(&p, status)
	}
	if raw, err := source.ReadAll(fs.pidPath(pid, "cmdline")); err == nil {
		p.Command = ParseCmdline(raw)
	}
	return p, nil
}

// ReadProcesses samples pids concurrently, at most limit at a time (limit <= 0
// means unbounded). Processes that vanished are dropped; the result order is
// the input order of the survivors. The only error returned is ctx's.
func (fs FS) ReadProcesses(ctx context.Context, pids []int, limit int) ([]ProcessSnapshot, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	res := make([]ProcessSnapshot, len(pids))
	ok := make([]bool, len(pids))
	for i, pid := range pids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := fs.ReadProcess(pid)
			if err != nil {
				return nil
			}
			res[i], ok[i] = p, true
			return nil
		})
	}
	err := g.Wait()

	out := res[:0]
	for i := range res {
		if ok[i] {
			out = append(out, res[i])
		}
	}
	return out, err
}
