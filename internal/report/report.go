// Package report renders run summaries, volatility comparisons and quotes as
// aligned plain-text tables.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/simulation"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

// Summary writes one run's outcome.
func Summary(w io.Writer, s domain.RunSummary) error {
	tw := newTable(w)
	rows := [][2]string{
		{"run", s.RunID},
		{"option", string(s.OptionType)},
		{"hedging", s.Hedging},
		{"volatility", fixed(s.Volatility, 4)},
		{"realized vol", fixed(s.RealizedVol, 4)},
		{"steps", fmt.Sprint(s.Steps)},
		{"spot", fixed(s.InitialSpot, 2) + " -> " + fixed(s.FinalSpot, 2)},
		{"premium", fixed(s.Premium, 4)},
		{"payoff", fixed(s.Payoff, 4)},
		{"final pnl", fixed(s.FinalPnL, 4)},
		{"pnl range", fixed(s.MinPnL, 4) + " .. " + fixed(s.MaxPnL, 4)},
		{"max drawdown", fixed(s.MaxDrawdown, 4)},
		{"trades", fmt.Sprintf("%d (%s units)", s.Trades, fixed(s.TradedQty, 4))},
		{"costs", fixed(s.TradingCosts, 4)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r[0], r[1])
	}
	return tw.Flush()
}

// Comparison writes the hedged and unhedged outcome per volatility.
func Comparison(w io.Writer, results []simulation.Comparison) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "vol\tpremium\thedged pnl\thedged min\thedged max\tnaive pnl\tnaive min\tnaive max\t")
	for _, c := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			fixed(c.Volatility, 2),
			fixed(c.Hedged.Premium, 4),
			fixed(c.Hedged.FinalPnL, 4),
			fixed(c.Hedged.MinPnL, 4),
			fixed(c.Hedged.MaxPnL, 4),
			fixed(c.Naive.FinalPnL, 4),
			fixed(c.Naive.MinPnL, 4),
			fixed(c.Naive.MaxPnL, 4),
		)
	}
	return tw.Flush()
}

// Quotes writes a two-sided market per strike.
func Quotes(w io.Writer, quotes []domain.Quote) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "strike\tdays\tfair\tbid\task\tdelta\tgamma\ttheta/day\t")
	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			fixed(q.Strike, 2),
			fixed(q.DaysToExpiry, 1),
			fixed(q.FairValue, 4),
			fixed(q.Bid, 2),
			fixed(q.Ask, 2),
			fixed(q.Greeks.Delta, 4),
			fixed(q.Greeks.Gamma, 4),
			fixed(q.ThetaPerDay, 4),
		)
	}
	return tw.Flush()
}

func fixed(x float64, places int32) string {
	return decimal.NewFromFloat(x).StringFixed(places)
}
