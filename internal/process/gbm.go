package process

import (
	"fmt"
	"math"
)

// Process produces the next underlying price from the current one.
type Process interface {
	Next(spot float64) float64
}

// GBM is a Geometric Brownian Motion discretised with the exact log-normal
// step, which keeps every price strictly positive.
type GBM struct {
	Drift      float64
	Volatility float64
	Dt         float64
	Source     NormalSource
}

// NewGBM validates the parameters and returns a GBM process.
func NewGBM(drift, vol, dt float64, src NormalSource) (*GBM, error) {
	if src == nil {
		return nil, fmt.Errorf("process: gbm: nil normal source")
	}
	if vol < 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
		return nil, fmt.Errorf("process: gbm: volatility %v must be non-negative", vol)
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("process: gbm: dt %v must be non-negative", dt)
	}
	return &GBM{Drift: drift, Volatility: vol, Dt: dt, Source: src}, nil
}

// Next draws one shock and advances spot by Dt.
func (g *GBM) Next(spot float64) float64 {
	return Increment(spot, g.Drift, g.Volatility, g.Dt, g.Source.NormFloat64())
}

// Increment is the GBM step for a given shock z:
//
//	S' = S · exp((μ − σ²/2)·Δt + σ·√Δt·z)
//
// The result is clamped to the representable positive range so extreme
// shocks cannot underflow to zero or overflow to +Inf.
func Increment(spot, drift, vol, dt, z float64) float64 {
	next := spot * math.Exp(logReturn(drift, vol, dt, z))
	switch {
	case next <= 0:
		return math.SmallestNonzeroFloat64
	case math.IsInf(next, 1):
		return math.MaxFloat64
	}
	return next
}

func logReturn(drift, vol, dt, z float64) float64 {
	return (drift-0.5*vol*vol)*dt + vol*math.Sqrt(dt)*z
}
