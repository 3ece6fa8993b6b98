package metrics

import (
	"encoding/json"
	"fmt"
	"math"
)

// Ratio is a utilization in [0,1] or NoData. Per-process CPU ratios may exceed
// 1 when a multithreaded process keeps more than one core busy.
type Ratio float64

// NoData marks a rate that is undefined: equal samples, a zero denominator or
// a window too short to be meaningful. It is distinct from Ratio(0), which is a
// measured idle.
const NoData Ratio = -1

// Valid reports whether r carries a measurement.
func (r Ratio) Valid() bool { return r >= 0 && !math.IsNaN(float64(r)) }

// Percent returns r*100, or NaN for NoData.
func (r Ratio) Percent() float64 {
	if !r.Valid() {
		return math.NaN()
	}
	return float64(r) * 100
}

func (r Ratio) String() string {
	if !r.Valid() {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", r.Percent())
}

// MarshalJSON encodes NoData as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON decodes null as NoData.
func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = NoData
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

func deltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	// counter wrapped or prev unset
	return 0
}

// ratio divides n by d, returning NoData for a zero, negative or NaN denominator.
func ratio(n, d float64) Ratio {
	const eps = 1e-12
	if !(d > eps) {
		return NoData
	}
	return Ratio(n / d)
}

func clamp01(x Ratio) Ratio {
	if !x.Valid() {
		return x
	}
	if x > 1 {
		return 1
	}
	return x
}
