package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/simulation"
)

// Event types accepted in notify.events.
const (
	EventRunSettled  = "run_settled"
	EventCompareDone = "compare_done"
)

// RunSettled reports a finished run.
func (n *Notifier) RunSettled(ctx context.Context, sum domain.RunSummary) error {
	title := fmt.Sprintf("hedgesim: %s %s settled", sum.Hedging, sum.OptionType)
	return n.Notify(ctx, EventRunSettled, title, runMessage(sum))
}

// CompareDone reports a volatility comparison.
func (n *Notifier) CompareDone(ctx context.Context, results []simulation.Comparison) error {
	var b strings.Builder
	for i, c := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "vol %s: premium %s, hedged %s, naive %s",
			pct(c.Volatility), money(c.Hedged.Premium), money(c.Hedged.FinalPnL), money(c.Naive.FinalPnL))
	}
	return n.Notify(ctx, EventCompareDone, "hedgesim: volatility comparison", b.String())
}

func runMessage(s domain.RunSummary) string {
	return fmt.Sprintf("run %s\nvol %s, %d steps\npremium %s, payoff %s\nfinal pnl %s (min %s, max %s)\ntrades %d, costs %s",
		s.RunID, pct(s.Volatility), s.Steps,
		money(s.Premium), money(s.Payoff),
		money(s.FinalPnL), money(s.MinPnL), money(s.MaxPnL),
		s.Trades, money(s.TradingCosts))
}

func money(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

func pct(x float64) string {
	return decimal.NewFromFloat(x).Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}
