// Package strategy holds the hedging policies the simulator can run with.
package strategy

import "github.com/alanyoungcy/hedgesim/internal/domain"

// Hedger decides the underlying position the desk should hold after selling
// contracts option units. It sees only the current Greeks and the position
// already held, so targets never depend on older hedge history.
type Hedger interface {
	Name() string
	Target(g domain.Greeks, contracts, current float64) float64
}

// Config holds the tunables shared by the built-in policies.
type Config struct {
	// RebalanceBand is the smallest trade the delta hedger will execute.
	RebalanceBand float64
}

const (
	NameDelta = "delta"
	NameNone  = "none"
)
