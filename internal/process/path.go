package process

import (
	"fmt"
	"math"
)

// Replay walks a scripted price path, ignoring the spot it is handed. Once
// the path is exhausted it keeps returning the last price.
type Replay struct {
	prices []float64
	i      int
}

// NewReplay returns a Replay over prices, which must all be positive.
func NewReplay(prices []float64) (*Replay, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("process: replay: empty path")
	}
	for i, p := range prices {
		if !(p > 0) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("process: replay: price %v at index %d must be positive", p, i)
		}
	}
	cp := make([]float64, len(prices))
	copy(cp, prices)
	return &Replay{prices: cp}, nil
}

// Next returns the next scripted price.
func (r *Replay) Next(float64) float64 {
	if r.i >= len(r.prices) {
		return r.prices[len(r.prices)-1]
	}
	p := r.prices[r.i]
	r.i++
	return p
}

// Len is the number of scripted steps.
func (r *Replay) Len() int { return len(r.prices) }

// Bridge builds a GBM-like path of steps prices after s0 that ends exactly at
// end. Shocks come from src; their sum is shifted so the cumulative log
// return hits ln(end/s0) while the step-to-step noise keeps volatility vol.
func Bridge(s0, end, vol, dt float64, steps int, src NormalSource) ([]float64, error) {
	if !(s0 > 0) || !(end > 0) {
		return nil, fmt.Errorf("process: bridge: endpoints %v -> %v must be positive", s0, end)
	}
	if steps < 1 {
		return nil, fmt.Errorf("process: bridge: steps %d must be at least 1", steps)
	}
	if src == nil {
		return nil, fmt.Errorf("process: bridge: nil normal source")
	}

	incs := make([]float64, steps)
	var total float64
	for i := range incs {
		incs[i] = logReturn(0, vol, dt, src.NormFloat64())
		total += incs[i]
	}
	shift := (math.Log(end/s0) - total) / float64(steps)

	prices := make([]float64, steps)
	logS := math.Log(s0)
	for i, x := range incs {
		logS += x + shift
		prices[i] = math.Exp(logS)
	}
	prices[steps-1] = end
	return prices, nil
}
