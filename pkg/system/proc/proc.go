package proc

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/tklauser/go-sysconf"
)

const (
	DefaultRoot      = "/proc"
	DefaultOSRelease = "/etc/os-release"
	DefaultPasswd    = "/etc/passwd"

	// os-release(5): read /etc/os-release, fall back to /usr/lib/os-release.
	fallbackOSRelease = "/usr/lib/os-release"
)

// Paths locates the data sources. Pointing Root at a copied tree lets tests
// and offline analysis run against captured procfs snapshots.
type Paths struct {
	Root      string // procfs mount point
	OSRelease string // os-release descriptor
	Passwd    string // identity database
}

// DefaultPaths returns the standard locations, with environment overrides
// PROCMON_PROC_ROOT, PROCMON_OS_RELEASE and PROCMON_PASSWD.
func DefaultPaths() Paths {
	p := Paths{
		Root:      DefaultRoot,
		OSRelease: DefaultOSRelease,
		Passwd:    DefaultPasswd,
	}
	if v := os.Getenv("PROCMON_PROC_ROOT"); v != "" {
		p.Root = v
	}
	if v := os.Getenv("PROCMON_OS_RELEASE"); v != "" {
		p.OSRelease = v
	}
	if v := os.Getenv("PROCMON_PASSWD"); v != "" {
		p.Passwd = v
	}
	return p
}

// FS reads telemetry below a procfs root. It holds no mutable state; every
// method performs fresh reads and is safe for concurrent use.
type FS struct {
	paths Paths
}

// NewFS returns an FS over p. Empty fields take their defaults.
func NewFS(p Paths) FS {
	if p.Root == "" {
		p.Root = DefaultRoot
	}
	if p.OSRelease == "" {
		p.OSRelease = DefaultOSRelease
	}
	if p.Passwd == "" {
		p.Passwd = DefaultPasswd
	}
	return FS{paths: p}
}

// Paths returns the sources this FS reads.
func (fs FS) Paths() Paths { return fs.paths }

// Path joins elem below the procfs root.
func (fs FS) Path(elem ...string) string {
	return filepath.Join(append([]string{fs.paths.Root}, elem...)...)
}

func (fs FS) pidPath(pid int, name string) string {
	return fs.Path(strconv.Itoa(pid), name)
}

// ClockTicks returns the number of clock ticks (jiffies) per second.
// The CLK_TCK env var wins (useful for testing), then sysconf(_SC_CLK_TCK),
// then the common default of 100.
func ClockTicks() int64 {
	if v, _ := strconv.ParseInt(os.Getenv("CLK_TCK"), 10, 64); v > 0 {
		return v
	}
	if v, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && v > 0 {
		return v
	}
	return 100
}
