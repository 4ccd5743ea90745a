// Package simulation runs the market-making loop: sell one option, hedge its
// delta at fixed steps along a simulated price path and account for PnL until
// the option settles.
package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/pricing"
	"github.com/alanyoungcy/hedgesim/internal/process"
	"github.com/alanyoungcy/hedgesim/internal/strategy"
)

// Option customises a Simulator.
type Option func(*Simulator)

// WithProcess replaces the seeded GBM with another price process, typically
// a process.Replay for forced scenarios.
func WithProcess(p process.Process) Option {
	return func(s *Simulator) { s.proc = p }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry resolves the hedging policy from r instead of the built-ins.
func WithRegistry(r *strategy.Registry) Option {
	return func(s *Simulator) { s.registry = r }
}

// Simulator executes one run. It is not safe for concurrent use and can run
// only once; build a new one per run.
type Simulator struct {
	params   domain.Params
	proc     process.Process
	registry *strategy.Registry
	hedger   strategy.Hedger
	logger   *slog.Logger
	runID    string
	done     bool
}

// New validates p and prepares a run. Every invalid parameter is reported as
// a *domain.ConfigError.
func New(p domain.Params, opts ...Option) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}

	s := &Simulator{
		params: p,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = strategy.NewDefaultRegistry(strategy.Config{RebalanceBand: p.RebalanceBand})
	}
	h, err := s.registry.Get(p.Hedging)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", &domain.ConfigError{
			Field: "hedging", Value: p.Hedging, Reason: "no such policy", Err: domain.ErrUnknownPolicy,
		})
	}
	s.hedger = h

	if s.proc == nil {
		gbm, err := process.NewGBM(p.Drift, p.Volatility, p.Dt(), process.NewSource(p.Seed))
		if err != nil {
			return nil, fmt.Errorf("simulation: %w", err)
		}
		s.proc = gbm
	}
	if sized, ok := s.proc.(interface{ Len() int }); ok && sized.Len() < p.Steps {
		return nil, fmt.Errorf("simulation: %w", &domain.ConfigError{
			Field: "path", Value: sized.Len(), Reason: fmt.Sprintf("need %d prices", p.Steps), Err: domain.ErrPathTooShort,
		})
	}

	id, err := RunID(p)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	s.runID = id
	s.logger = s.logger.With(slog.String("component", "simulation"), slog.String("run_id", id))
	return s, nil
}

// RunID is the deterministic identifier of this run.
func (s *Simulator) RunID() string { return s.runID }

// Params returns the run's parameters.
func (s *Simulator) Params() domain.Params { return s.params }

// Run sells the option at t=0 and steps the hedge to settlement, writing each
// record to every sink in step order. Sinks are not closed. A sink error or a
// cancelled context aborts the run.
func (s *Simulator) Run(ctx context.Context, sinks ...domain.RecordSink) (domain.RunSummary, error) {
	if s.done {
		return domain.RunSummary{}, fmt.Errorf("simulation: run %s: %w", s.runID, domain.ErrRunSettled)
	}
	s.done = true

	p := s.params
	contract := p.Contract()
	spot := p.Spot

	g, err := pricing.Evaluate(p.Market(spot, p.Expiry), contract)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("simulation: price at t=0: %w", err)
	}

	premium := g.Value * p.Contracts
	led := newLedger(premium, p.TransactionCostBps)
	st := newStats(p.Spot, p.Dt(), p.Steps)

	s.logger.Info("simulation started",
		slog.String("option_type", string(p.OptionType)),
		slog.String("hedging", s.hedger.Name()),
		slog.Float64("premium", premium),
		slog.Int("steps", p.Steps),
	)

	var payoff float64
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return domain.RunSummary{}, fmt.Errorf("simulation: step %d: %w", i, err)
		}

		tau := s.timeToExpiry(i)
		if i > 0 {
			spot = s.proc.Next(spot)
			st.observeSpot(spot)
			g, err = pricing.Evaluate(p.Market(spot, tau), contract)
			if err != nil {
				return domain.RunSummary{}, fmt.Errorf("simulation: price step %d: %w", i, err)
			}
		}

		terminal := tau == 0 || i >= p.Steps
		target := 0.0
		if !terminal {
			target = s.hedger.Target(g, p.Contracts, led.position)
		}
		trade := led.rebalance(target, spot)
		if trade != 0 {
			st.observeTrade(trade)
			s.logger.Debug("hedge trade",
				slog.Int("step", i),
				slog.Float64("spot", spot),
				slog.Float64("trade", trade),
				slog.Float64("position", led.position),
			)
		}

		rec := domain.StepRecord{
			Step:         i,
			Time:         s.elapsed(i),
			TimeToExpiry: tau,
			Spot:         spot,
			FairValue:    g.Value,
			Delta:        g.Delta,
			Gamma:        g.Gamma,
			Theta:        g.Theta,
			Hedge:        led.position,
			Trade:        trade,
			State:        domain.RunStateRunning,
		}
		if terminal {
			payoff = pricing.Intrinsic(spot, contract.Strike, contract.Type) * p.Contracts
			led.settle(payoff)
			rec.State = domain.RunStateSettled
			rec.PnL = led.cash
		} else {
			rec.PnL = led.markToMarket(spot, g.Value*p.Contracts)
		}
		rec.Cash = led.cash
		st.observePnL(rec.PnL)

		for _, sink := range sinks {
			if err := sink.WriteRecord(ctx, rec); err != nil {
				return domain.RunSummary{}, fmt.Errorf("simulation: write step %d: %w", i, err)
			}
		}
		if terminal {
			break
		}
	}

	sum := st.summary()
	sum.RunID = s.runID
	sum.OptionType = p.OptionType
	sum.Hedging = s.hedger.Name()
	sum.Volatility = p.Volatility
	sum.Steps = st.steps - 1
	sum.Premium = premium
	sum.FinalSpot = spot
	sum.Payoff = payoff
	sum.TradingCosts = led.costs
	sum.State = domain.RunStateSettled

	s.logger.Info("simulation settled",
		slog.Float64("final_spot", spot),
		slog.Float64("payoff", payoff),
		slog.Float64("final_pnl", sum.FinalPnL),
		slog.Int("trades", sum.Trades),
	)
	return sum, nil
}

// timeToExpiry is T·(N−i)/N, which is exactly T at step 0, strictly
// decreasing and exactly zero at step N.
func (s *Simulator) timeToExpiry(i int) float64 {
	n := s.params.Steps
	if i >= n || s.params.Expiry == 0 {
		return 0
	}
	return s.params.Expiry * float64(n-i) / float64(n)
}

func (s *Simulator) elapsed(i int) float64 {
	if s.params.Expiry == 0 {
		return 0
	}
	return s.params.Expiry - s.timeToExpiry(i)
}
