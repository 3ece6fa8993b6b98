package metrics

// EMA is an exponential moving average over ratios. NoData inputs pass
// through without disturbing the state, so a short poll does not drag the
// average to zero.
type EMA struct {
	alpha, prev float64
	ok          bool
}

// NewEMA returns an EMA with alpha clamped to [0,1]. alpha == 1 disables
// smoothing.
func NewEMA(alpha float64) *EMA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return &EMA{alpha: alpha}
}

func (e *EMA) Next(v Ratio) Ratio {
	if !v.Valid() {
		return v
	}
	if !e.ok {
		e.prev, e.ok = float64(v), true
		return v
	}
	e.prev = e.alpha*float64(v) + (1-e.alpha)*e.prev
	return Ratio(e.prev)
}

// Reset forgets the smoothed value.
func (e *EMA) Reset() { e.prev, e.ok = 0, false }
