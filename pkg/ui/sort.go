package ui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ja7ad/procmon/pkg/monitor"
)

// SortKey selects the process table order.
type SortKey string

const (
	SortCPU  SortKey = "cpu"  // instantaneous CPU, highest first
	SortMem  SortKey = "mem"  // resident memory, largest first
	SortPID  SortKey = "pid"  // ascending
	SortTime SortKey = "time" // longest running first
)

// ErrSortKey indicates an unknown sort key.
var ErrSortKey = errors.New("ui: unknown sort key")

// ParseSortKey accepts cpu, mem, pid or time, case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortCPU, SortMem, SortPID, SortTime:
		return k, nil
	case "":
		return SortCPU, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrSortKey, s)
	}
}

// SortRows orders rows in place by key; ties fall back to ascending pid.
// Rows without a CPU rate sort after every row that has one.
func SortRows(rows []monitor.Row, key SortKey) {
	less := func(a, b monitor.Row) (bool, bool) {
		switch key {
		case SortMem:
			return a.ResidentKB > b.ResidentKB, a.ResidentKB == b.ResidentKB
		case SortTime:
			return a.Elapsed > b.Elapsed, a.Elapsed == b.Elapsed
		case SortPID:
			return a.PID < b.PID, a.PID == b.PID
		default:
			av, bv := a.CPU.Valid(), b.CPU.Valid()
			if av != bv {
				return av, false
			}
			if !av {
				return false, true
			}
			return a.CPU > b.CPU, a.CPU == b.CPU
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		lt, eq := less(rows[i], rows[j])
		if eq {
			return rows[i].PID < rows[j].PID
		}
		return lt
	})
}
