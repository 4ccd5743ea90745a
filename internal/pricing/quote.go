package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// DefaultSpread is the full bid/ask width quoted when none is configured.
const DefaultSpread = 0.04

// MakeQuote prices the option and places a symmetric market around fair
// value. Bid and ask are rounded to the cent; the bid never goes below zero.
func MakeQuote(m domain.MarketState, c domain.OptionContract, spread float64) (domain.Quote, error) {
	if spread < 0 {
		spread = 0
	}
	g, err := Evaluate(m, c)
	if err != nil {
		return domain.Quote{}, err
	}

	fair := decimal.NewFromFloat(g.Value)
	half := decimal.NewFromFloat(spread).Div(decimal.NewFromInt(2))
	bid := fair.Sub(half).Round(2)
	if bid.IsNegative() {
		bid = decimal.Zero
	}
	ask := fair.Add(half).Round(2)

	return domain.Quote{
		Strike:       c.Strike,
		DaysToExpiry: m.TimeToExpiry * daysPerYear,
		FairValue:    g.Value,
		Bid:          bid.InexactFloat64(),
		Ask:          ask.InexactFloat64(),
		Spread:       spread,
		ThetaPerDay:  g.Theta / daysPerYear,
		Greeks:       g,
	}, nil
}
