// Package cgroup reports which cgroup hierarchy a host mounts. The monitor
// shows it next to the kernel version since it decides how container limits
// are enforced on the processes being listed.
package cgroup

import (
	"fmt"
	"strings"

	"github.com/ja7ad/procmon/pkg/system/source"
)

type Version int

const (
	Unsupported Version = iota // no cgroup mounts or mountinfo unreadable
	V1                         // legacy multi-hierarchy cgroup v1
	V2                         // unified cgroup v2
	Hybrid                     // both v1 and v2 present
)

func (v Version) String() string {
	switch v {
	case V1:
		return "cgroup v1"
	case V2:
		return "cgroup v2"
	case Hybrid:
		return "cgroup hybrid"
	default:
		return "unsupported"
	}
}

// MarshalText lets Version appear as a string in JSON frames.
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Mount is one cgroup filesystem found in mountinfo.
type Mount struct {
	FSType     string
	MountPoint string
}

// ParseMountinfo extracts cgroup and cgroup2 mounts from mountinfo lines.
//
// The line format has optional fields terminated by a " - " separator:
//
//	36 35 98:0 /mnt1 /mnt2 rw,noatime master:1 - ext3 /dev/root rw
//
// The mount point is the 5th field before the separator, the fstype the
// first field after it. Lines that do not fit are skipped.
func ParseMountinfo(lines []string) []Mount {
	var out []Mount
	for _, line := range lines {
		const sep = " - "
		i := strings.LastIndex(line, sep)
		if i < 0 {
			continue
		}
		tail := strings.Fields(line[i+len(sep):])
		if len(tail) < 1 {
			continue
		}
		pre := strings.Fields(line[:i])
		if len(pre) < 5 {
			continue
		}
		if tail[0] == "cgroup" || tail[0] == "cgroup2" {
			out = append(out, Mount{FSType: tail[0], MountPoint: pre[4]})
		}
	}
	return out
}

// Classify maps a set of cgroup mounts to a Version and a human-readable
// detail string.
func Classify(mounts []Mount) (Version, string) {
	var v1Pts, v2Pts []string
	for _, m := range mounts {
		switch m.FSType {
		case "cgroup2":
			v2Pts = append(v2Pts, m.MountPoint)
		case "cgroup":
			v1Pts = append(v1Pts, m.MountPoint)
		}
	}

	switch {
	case len(v1Pts) > 0 && len(v2Pts) > 0:
		return Hybrid, fmt.Sprintf("cgroup2 on %v; cgroup v1 on %v",
			strings.Join(v2Pts, ","), strings.Join(v1Pts, ","))
	case len(v2Pts) > 0:
		return V2, fmt.Sprintf("cgroup2 on %v", strings.Join(v2Pts, ","))
	case len(v1Pts) > 0:
		return V1, fmt.Sprintf("cgroup v1 on %v", strings.Join(v1Pts, ","))
	default:
		return Unsupported, "no cgroup mounts found"
	}
}

// Detect reads a mountinfo file (normally /proc/self/mountinfo) and returns
// the detected cgroup version.
func Detect(mountinfoPath string) (Version, string, error) {
	lines, err := source.Lines(mountinfoPath)
	if err != nil {
		return Unsupported, "", fmt.Errorf("cgroup: read mountinfo: %w", err)
	}
	v, detail := Classify(ParseMountinfo(lines))
	return v, detail, nil
}
