package simulation

import "math"

// ledger is the desk's cash account and underlying position. Cash starts at
// the premium collected for the option sold.
type ledger struct {
	cash     float64
	position float64
	costs    float64
	costRate float64
}

func newLedger(premium, costBps float64) *ledger {
	return &ledger{cash: premium, costRate: costBps / 1e4}
}

// rebalance trades the position to target at spot and returns the executed
// quantity (positive buys).
func (l *ledger) rebalance(target, spot float64) float64 {
	trade := target - l.position
	if trade == 0 {
		return 0
	}
	cost := math.Abs(trade) * spot * l.costRate
	l.cash -= trade*spot + cost
	l.costs += cost
	l.position = target
	return trade
}

// markToMarket is cash plus hedge value minus the option liability.
func (l *ledger) markToMarket(spot, liability float64) float64 {
	return l.cash + l.position*spot - liability
}

// settle pays the option holder. The hedge must already be flat.
func (l *ledger) settle(payoff float64) {
	l.cash -= payoff
}
