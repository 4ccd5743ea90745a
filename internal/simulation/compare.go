package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/strategy"
)

// Comparison pairs the delta-hedged and unhedged outcome of one scenario.
type Comparison struct {
	Volatility float64           `json:"volatility"`
	Hedged     domain.RunSummary `json:"hedged"`
	Naive      domain.RunSummary `json:"naive"`
}

// Compare reruns base at each volatility, once delta hedged and once
// unhedged. Both runs of a scenario share the seed, so they see the same
// shocks.
func Compare(ctx context.Context, base domain.Params, vols []float64, logger *slog.Logger) ([]Comparison, error) {
	out := make([]Comparison, 0, len(vols))
	for _, v := range vols {
		p := base
		p.Volatility = v

		hedged, err := runPolicy(ctx, p, strategy.NameDelta, logger)
		if err != nil {
			return nil, fmt.Errorf("compare vol %v: %w", v, err)
		}
		naive, err := runPolicy(ctx, p, strategy.NameNone, logger)
		if err != nil {
			return nil, fmt.Errorf("compare vol %v: %w", v, err)
		}
		out = append(out, Comparison{Volatility: v, Hedged: hedged, Naive: naive})
	}
	return out, nil
}

func runPolicy(ctx context.Context, p domain.Params, policy string, logger *slog.Logger) (domain.RunSummary, error) {
	p.Hedging = policy
	sim, err := New(p, WithLogger(logger))
	if err != nil {
		return domain.RunSummary{}, err
	}
	return sim.Run(ctx)
}
