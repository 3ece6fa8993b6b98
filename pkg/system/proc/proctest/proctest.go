// Package proctest builds fake procfs trees under t.TempDir for tests.
package proctest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ja7ad/procmon/pkg/system/proc"
)

// Tree is a writable procfs root plus etc files.
type Tree struct {
	t    *testing.T
	root string
	etc  string
}

// New returns an empty tree with a "self" and "thread-self" entry so pid
// enumeration has something to skip.
func New(t *testing.T) *Tree {
	t.Helper()
	base := t.TempDir()
	tr := &Tree{
		t:    t,
		root: filepath.Join(base, "proc"),
		etc:  filepath.Join(base, "etc"),
	}
	tr.mkdir(tr.root)
	tr.mkdir(tr.etc)
	tr.mkdir(filepath.Join(tr.root, "self"))
	tr.mkdir(filepath.Join(tr.root, "thread-self"))
	return tr
}

func (tr *Tree) mkdir(p string) {
	tr.t.Helper()
	if err := os.MkdirAll(p, 0o755); err != nil {
		tr.t.Fatalf("proctest: mkdir %s: %v", p, err)
	}
}

// Root is the procfs root directory.
func (tr *Tree) Root() string { return tr.root }

// Paths points all sources into the tree.
func (tr *Tree) Paths() proc.Paths {
	return proc.Paths{
		Root:      tr.root,
		OSRelease: filepath.Join(tr.etc, "os-release"),
		Passwd:    filepath.Join(tr.etc, "passwd"),
	}
}

// FS is proc.NewFS(tr.Paths()).
func (tr *Tree) FS() proc.FS { return proc.NewFS(tr.Paths()) }

// Write creates rel below the procfs root.
func (tr *Tree) Write(rel, content string) *Tree {
	tr.t.Helper()
	return tr.write(filepath.Join(tr.root, rel), content)
}

// WriteEtc creates name below the etc directory.
func (tr *Tree) WriteEtc(name, content string) *Tree {
	tr.t.Helper()
	return tr.write(filepath.Join(tr.etc, name), content)
}

func (tr *Tree) write(p, content string) *Tree {
	tr.t.Helper()
	tr.mkdir(filepath.Dir(p))
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		tr.t.Fatalf("proctest: write %s: %v", p, err)
	}
	return tr
}

// Stat writes <root>/stat with the aggregate cpu row, ncpu per-core rows
// and the process counters.
func (tr *Tree) Stat(cpu string, ncpu, processes, running int) *Tree {
	var b strings.Builder
	fmt.Fprintf(&b, "cpu  %s\n", cpu)
	for i := 0; i < ncpu; i++ {
		fmt.Fprintf(&b, "cpu%d %s\n", i, cpu)
	}
	b.WriteString("intr 1 0 0\nctxt 100\nbtime 1700000000\n")
	fmt.Fprintf(&b, "processes %d\nprocs_running %d\nprocs_blocked 0\n", processes, running)
	return tr.Write("stat", b.String())
}

// MemInfo writes <root>/meminfo with MemTotal and MemAvailable in kB.
func (tr *Tree) MemInfo(totalKB, availableKB int64) *Tree {
	return tr.Write("meminfo", fmt.Sprintf(
		"MemTotal:       %d kB\nMemFree:        %d kB\nMemAvailable:   %d kB\n",
		totalKB, availableKB/2, availableKB))
}

// Uptime writes <root>/uptime.
func (tr *Tree) Uptime(seconds float64) *Tree {
	return tr.Write("uptime", fmt.Sprintf("%.2f %.2f\n", seconds, seconds*3))
}

// Version writes <root>/version for the given kernel release.
func (tr *Tree) Version(release string) *Tree {
	return tr.Write("version", "Linux version "+release+" (builder@host) (gcc 12.2.0) #1 SMP\n")
}

// Proc describes one fake process.
type Proc struct {
	PID        int
	PPID       int
	Comm       string
	State      string
	UID        int
	VmSizeKB   int64 // 0 omits the VmSize line
	VmRSSKB    int64
	Cmdline    []string
	UTime      uint64
	STime      uint64
	StartTicks uint64
}

// StatLine renders p as a full 52-field /proc/<pid>/stat line.
func StatLine(p Proc) string {
	state := p.State
	if state == "" {
		state = "S"
	}
	f := make([]string, 52)
	for i := range f {
		f[i] = "0"
	}
	f[0] = strconv.Itoa(p.PID)
	f[1] = "(" + p.Comm + ")"
	f[2] = state
	f[3] = strconv.Itoa(p.PPID)
	f[13] = strconv.FormatUint(p.UTime, 10)
	f[14] = strconv.FormatUint(p.STime, 10)
	f[21] = strconv.FormatUint(p.StartTicks, 10)
	return strings.Join(f, " ")
}

// StatusText renders p as /proc/<pid>/status.
func StatusText(p Proc) string {
	state := p.State
	if state == "" {
		state = "S"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name:\t%s\nState:\t%s (sleeping)\nPid:\t%d\nPPid:\t%d\n", p.Comm, state, p.PID, p.PPID)
	fmt.Fprintf(&b, "Uid:\t%d\t%d\t%d\t%d\n", p.UID, p.UID, p.UID, p.UID)
	if p.VmSizeKB > 0 {
		fmt.Fprintf(&b, "VmSize:\t%8d kB\nVmRSS:\t%8d kB\n", p.VmSizeKB, p.VmRSSKB)
	}
	b.WriteString("Threads:\t1\n")
	return b.String()
}

// Process writes stat, status and cmdline for p.
func (tr *Tree) Process(p Proc) *Tree {
	dir := strconv.Itoa(p.PID)
	tr.Write(filepath.Join(dir, "stat"), StatLine(p)+"\n")
	tr.Write(filepath.Join(dir, "status"), StatusText(p))
	cmd := ""
	if len(p.Cmdline) > 0 {
		cmd = strings.Join(p.Cmdline, "\x00") + "\x00"
	}
	return tr.Write(filepath.Join(dir, "cmdline"), cmd)
}

// Remove deletes rel below the procfs root, simulating an exited process.
func (tr *Tree) Remove(rel string) *Tree {
	tr.t.Helper()
	if err := os.RemoveAll(filepath.Join(tr.root, rel)); err != nil {
		tr.t.Fatalf("proctest: remove %s: %v", rel, err)
	}
	return tr
}
