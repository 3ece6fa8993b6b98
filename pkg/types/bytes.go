package types

import "fmt"

// Bytes is a memory size. procfs reports sizes in KiB; use FromKB.
type Bytes uint64

// FromKB converts a procfs "kB" figure (which is KiB) to Bytes. Negative
// input, used for unknown sizes, yields 0.
func FromKB(kb int64) Bytes {
	if kb <= 0 {
		return 0
	}
	return Bytes(uint64(kb) << 10)
}

var units = [...]string{"KB", "MB", "GB", "TB"}

// Humanized picks the largest 1024-based unit that keeps the value >= 1 and
// prints two decimals: "512 B", "1.50 KB", "3.27 GB". TB is the largest unit.
func (b Bytes) Humanized() string {
	if b < 1<<10 {
		return fmt.Sprintf("%d B", uint64(b))
	}
	v := float64(b) / (1 << 10)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}

func (b Bytes) String() string { return b.Humanized() }
