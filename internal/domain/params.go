package domain

import (
	"errors"
	"math"
	"strings"
)

// Params is the immutable configuration of one simulation run. It is built
// once (from the config file, an API request or a test) and passed by value
// into the simulator.
type Params struct {
	Spot       float64    `json:"spot"`
	Strike     float64    `json:"strike"`
	Rate       float64    `json:"rate"`
	Volatility float64    `json:"volatility"`
	Drift      float64    `json:"drift"`
	Expiry     float64    `json:"expiry"` // years
	Steps      int        `json:"steps"`
	OptionType OptionType `json:"option_type"`
	Seed       uint64     `json:"seed"`

	// Contracts is the number of option units sold; the hedge scales with it.
	Contracts float64 `json:"contracts"`
	// TransactionCostBps is charged on the notional of every hedge trade.
	TransactionCostBps float64 `json:"transaction_cost_bps"`
	// RebalanceBand skips hedge trades smaller than this quantity.
	RebalanceBand float64 `json:"rebalance_band"`
	// Hedging names the hedging policy ("delta" or "none").
	Hedging string `json:"hedging"`
}

// Dt is the length of one step in years.
func (p Params) Dt() float64 {
	if p.Steps <= 0 {
		return 0
	}
	return p.Expiry / float64(p.Steps)
}

// Contract returns the option sold at t=0.
func (p Params) Contract() OptionContract {
	return OptionContract{Strike: p.Strike, Expiry: p.Expiry, Type: p.OptionType}
}

// Market returns the market state at the given spot and time to expiry.
func (p Params) Market(spot, tau float64) MarketState {
	return MarketState{Spot: spot, Volatility: p.Volatility, Rate: p.Rate, TimeToExpiry: tau}
}

// Validate rejects parameters the simulator cannot run with. Every offending
// field is reported as a *ConfigError; the joined error matches
// ErrInvalidConfig.
func (p Params) Validate() error {
	var errs []error
	bad := func(field string, v any, reason string) {
		errs = append(errs, &ConfigError{Field: field, Value: v, Reason: reason})
	}

	if !finite(p.Spot) || p.Spot <= 0 {
		bad("spot", p.Spot, "must be a positive number")
	}
	if !finite(p.Strike) || p.Strike <= 0 {
		bad("strike", p.Strike, "must be a positive number")
	}
	if !finite(p.Volatility) || p.Volatility < 0 {
		bad("volatility", p.Volatility, "must be non-negative")
	}
	if !finite(p.Rate) {
		bad("rate", p.Rate, "must be finite")
	}
	if !finite(p.Drift) {
		bad("drift", p.Drift, "must be finite")
	}
	if !finite(p.Expiry) || p.Expiry < 0 {
		bad("expiry", p.Expiry, "time horizon must be non-negative")
	}
	if p.Steps < 1 {
		bad("steps", p.Steps, "must be at least 1")
	}
	if !p.OptionType.Valid() {
		bad("option_type", p.OptionType, "must be call or put")
	}
	if !finite(p.Contracts) || p.Contracts <= 0 {
		bad("contracts", p.Contracts, "must be positive")
	}
	if !finite(p.TransactionCostBps) || p.TransactionCostBps < 0 {
		bad("transaction_cost_bps", p.TransactionCostBps, "must be non-negative")
	}
	if !finite(p.RebalanceBand) || p.RebalanceBand < 0 {
		bad("rebalance_band", p.RebalanceBand, "must be non-negative")
	}
	if strings.TrimSpace(p.Hedging) == "" {
		bad("hedging", p.Hedging, "must name a hedging policy")
	}

	return errors.Join(errs...)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
