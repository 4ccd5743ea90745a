// Package pricing implements closed-form Black-Scholes valuation of European
// options together with the Greeks the hedger needs.
package pricing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// daysPerYear converts annual theta to the per-day figure quoted to traders.
const daysPerYear = 365.0

// minDiffusion is the smallest s·σ√τ the Greeks divide by; below it gamma
// would overflow, so the deterministic branch prices the option instead.
const minDiffusion = 1e-300

// BlackScholes returns fair value and Greeks of one option unit.
//
// Degenerate inputs never divide by zero: at expiry the value is the payoff
// and delta is a step function; with no usable diffusion (s·σ√τ at or below
// minDiffusion) the underlying grows deterministically at the risk-free rate.
func BlackScholes(s, k, r, sigma, tau float64, typ domain.OptionType) (domain.Greeks, error) {
	if err := validate(s, k, r, sigma, tau, typ); err != nil {
		return domain.Greeks{}, err
	}

	if tau == 0 {
		return atExpiry(s, k, typ), nil
	}

	sqrtT := math.Sqrt(tau)
	sd := sigma * sqrtT
	if !(s*sd > minDiffusion) {
		return deterministic(s, k, r, tau, typ), nil
	}

	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*tau) / sd
	d2 := d1 - sd
	disc := k * math.Exp(-r*tau)
	pdf := NormPDF(d1)

	g := domain.Greeks{
		Gamma: pdf / (s * sd),
		Vega:  s * sqrtT * pdf,
	}
	decay := -s * pdf * sigma / (2 * sqrtT)

	switch typ {
	case domain.OptionTypeCall:
		g.Value = s*NormCDF(d1) - disc*NormCDF(d2)
		g.Delta = NormCDF(d1)
		g.Theta = decay - r*disc*NormCDF(d2)
		g.Rho = tau * disc * NormCDF(d2)
	default:
		g.Value = disc*NormCDF(-d2) - s*NormCDF(-d1)
		g.Delta = NormCDF(d1) - 1
		g.Theta = decay + r*disc*NormCDF(-d2)
		g.Rho = -tau * disc * NormCDF(-d2)
	}
	// Deep out-of-the-money values can round a hair below zero.
	g.Value = math.Max(g.Value, 0)
	return g, nil
}

// Price returns only the fair value.
func Price(s, k, r, sigma, tau float64, typ domain.OptionType) (float64, error) {
	g, err := BlackScholes(s, k, r, sigma, tau, typ)
	if err != nil {
		return 0, err
	}
	return g.Value, nil
}

// Evaluate prices the contract at the given market state.
func Evaluate(m domain.MarketState, c domain.OptionContract) (domain.Greeks, error) {
	return BlackScholes(m.Spot, c.Strike, m.Rate, m.Volatility, m.TimeToExpiry, c.Type)
}

// Intrinsic is the payoff of the option exercised at spot s.
func Intrinsic(s, k float64, typ domain.OptionType) float64 {
	if typ == domain.OptionTypeCall {
		return math.Max(s-k, 0)
	}
	return math.Max(k-s, 0)
}

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

func atExpiry(s, k float64, typ domain.OptionType) domain.Greeks {
	g := domain.Greeks{Value: Intrinsic(s, k, typ)}
	switch {
	case typ == domain.OptionTypeCall && s > k:
		g.Delta = 1
	case typ == domain.OptionTypePut && s < k:
		g.Delta = -1
	}
	return g
}

func deterministic(s, k, r, tau float64, typ domain.OptionType) domain.Greeks {
	disc := k * math.Exp(-r*tau)
	var g domain.Greeks
	switch typ {
	case domain.OptionTypeCall:
		if s > disc {
			g.Value = s - disc
			g.Delta = 1
			g.Theta = -r * disc
			g.Rho = tau * disc
		}
	default:
		if s < disc {
			g.Value = disc - s
			g.Delta = -1
			g.Theta = r * disc
			g.Rho = -tau * disc
		}
	}
	return g
}

func validate(s, k, r, sigma, tau float64, typ domain.OptionType) error {
	switch {
	case !(s > 0) || math.IsInf(s, 0):
		return fmt.Errorf("pricing: spot %v: %w", s, domain.ErrInvalidInput)
	case !(k > 0) || math.IsInf(k, 0):
		return fmt.Errorf("pricing: strike %v: %w", k, domain.ErrInvalidInput)
	case !(sigma >= 0) || math.IsInf(sigma, 0):
		return fmt.Errorf("pricing: volatility %v: %w", sigma, domain.ErrInvalidInput)
	case !(tau >= 0) || math.IsInf(tau, 0):
		return fmt.Errorf("pricing: time to expiry %v: %w", tau, domain.ErrInvalidInput)
	case math.IsNaN(r) || math.IsInf(r, 0):
		return fmt.Errorf("pricing: rate %v: %w", r, domain.ErrInvalidInput)
	case !typ.Valid():
		return fmt.Errorf("pricing: option type %q: %w", typ, domain.ErrInvalidInput)
	}
	return nil
}
