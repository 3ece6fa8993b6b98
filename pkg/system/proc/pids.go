package proc

import (
	"fmt"
	"strconv"

	"github.com/ja7ad/procmon/pkg/system/source"
)

// ParsePID reports whether a procfs entry name is a process id: all ASCII
// digits and greater than zero. "self", "thread-self" and "sys" are not.
func ParsePID(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	pid, err := strconv.Atoi(name)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// PIDs lists the processes currently visible below the procfs root, in no
// particular order. A listed pid may be gone by the time it is read.
func (fs FS) PIDs() ([]int, error) {
	names, err := source.Names(fs.paths.Root)
	if err != nil {
		return nil, fmt.Errorf("proc: list pids: %w", err)
	}
	pids := make([]int, 0, len(names))
	for _, n := range names {
		if pid, ok := ParsePID(n); ok {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}
