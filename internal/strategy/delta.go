package strategy

import (
	"math"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// DeltaHedger holds Delta × contracts of the underlying, offsetting the
// short option's delta. Trades smaller than the band are skipped.
type DeltaHedger struct {
	band float64
}

// NewDeltaHedger creates a DeltaHedger with the configured rebalance band.
func NewDeltaHedger(cfg Config) *DeltaHedger {
	return &DeltaHedger{band: math.Max(cfg.RebalanceBand, 0)}
}

// Name returns the policy identifier.
func (d *DeltaHedger) Name() string { return NameDelta }

// Target returns the delta-neutral position, or current when the required
// trade is inside the band.
func (d *DeltaHedger) Target(g domain.Greeks, contracts, current float64) float64 {
	target := g.Delta * contracts
	if d.band > 0 && math.Abs(target-current) < d.band {
		return current
	}
	return target
}

// Unhedged never holds the underlying; it is the naive baseline the delta
// hedger is measured against.
type Unhedged struct{}

// Name returns the policy identifier.
func (Unhedged) Name() string { return NameNone }

// Target is always flat.
func (Unhedged) Target(domain.Greeks, float64, float64) float64 { return 0 }

var (
	_ Hedger = (*DeltaHedger)(nil)
	_ Hedger = Unhedged{}
)
