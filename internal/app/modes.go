package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/hedgesim/internal/codec"
	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/pricing"
	"github.com/alanyoungcy/hedgesim/internal/report"
	"github.com/alanyoungcy/hedgesim/internal/server"
	"github.com/alanyoungcy/hedgesim/internal/server/handler"
	"github.com/alanyoungcy/hedgesim/internal/server/ws"
	"github.com/alanyoungcy/hedgesim/internal/simulation"
	"github.com/alanyoungcy/hedgesim/internal/sink"
	"github.com/alanyoungcy/hedgesim/internal/strategy"
)

// shutdownTimeout bounds the graceful HTTP shutdown in serve mode.
const shutdownTimeout = 5 * time.Second

// RunMode runs one simulation, streams its records to the configured output
// and transports, and reports the summary on stderr.
func (a *App) RunMode(ctx context.Context, deps *Dependencies) error {
	p, err := a.cfg.Params()
	if err != nil {
		return fmt.Errorf("app: run: %w", err)
	}
	sim, err := simulation.New(p, simulation.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("app: run: %w", err)
	}

	out, closeOut, err := a.openOutput()
	if err != nil {
		return fmt.Errorf("app: run: %w", err)
	}
	defer closeOut()

	primary, err := sink.ForFormat(a.cfg.Output.Format, out)
	if err != nil {
		return fmt.Errorf("app: run: %w", err)
	}
	sinks := sink.Multi{primary}
	extra, err := deps.TransportSinks(sim.RunID())
	if err != nil {
		return fmt.Errorf("app: run: %w", err)
	}
	sinks = append(sinks, extra...)

	sum, runErr := sim.Run(ctx, sinks)
	if err := sinks.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("app: close sinks: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("app: run: %w", runErr)
	}

	a.logger.InfoContext(ctx, "run settled",
		slog.String("run_id", sum.RunID),
		slog.Float64("premium", sum.Premium),
		slog.Float64("final_pnl", sum.FinalPnL),
		slog.Float64("max_drawdown", sum.MaxDrawdown),
		slog.Int("trades", sum.Trades),
	)
	if err := report.Summary(a.stderr, sum); err != nil {
		return fmt.Errorf("app: run: report: %w", err)
	}
	if err := deps.Notifier.RunSettled(ctx, sum); err != nil {
		a.logger.WarnContext(ctx, "notify run settled", slog.String("error", err.Error()))
	}
	return nil
}

// openOutput returns the record destination. An empty path or "-" means
// stdout, which is never closed.
func (a *App) openOutput() (io.Writer, func(), error) {
	path := a.cfg.Output.Path
	if path == "" || path == "-" {
		return a.stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			a.logger.Warn("close output", slog.String("path", path), slog.String("error", err.Error()))
		}
	}, nil
}

// CompareMode reruns the configured scenario at every configured volatility,
// hedged and unhedged, and prints a comparison table.
func (a *App) CompareMode(ctx context.Context, deps *Dependencies) error {
	p, err := a.cfg.Params()
	if err != nil {
		return fmt.Errorf("app: compare: %w", err)
	}
	results, err := simulation.Compare(ctx, p, a.cfg.Compare.Volatilities, a.logger)
	if err != nil {
		return fmt.Errorf("app: compare: %w", err)
	}
	if err := report.Comparison(a.stdout, results); err != nil {
		return fmt.Errorf("app: compare: report: %w", err)
	}
	if err := deps.Notifier.CompareDone(ctx, results); err != nil {
		a.logger.WarnContext(ctx, "notify compare done", slog.String("error", err.Error()))
	}
	return nil
}

// QuoteMode prints a two-sided market for each configured strike.
func (a *App) QuoteMode(ctx context.Context, _ *Dependencies) error {
	p, err := a.cfg.Params()
	if err != nil {
		return fmt.Errorf("app: quote: %w", err)
	}
	strikes := a.cfg.Quote.Strikes
	if len(strikes) == 0 {
		strikes = []float64{p.Strike}
	}
	tau := p.Expiry
	if a.cfg.Quote.DaysToExpiry > 0 {
		tau = a.cfg.Quote.DaysToExpiry / 365
	}

	m := p.Market(p.Spot, tau)
	quotes := make([]domain.Quote, 0, len(strikes))
	for _, k := range strikes {
		q, err := pricing.MakeQuote(m, domain.OptionContract{Strike: k, Expiry: tau, Type: p.OptionType}, a.cfg.Quote.Spread)
		if err != nil {
			return fmt.Errorf("app: quote strike %v: %w", k, err)
		}
		quotes = append(quotes, q)
	}
	a.logger.DebugContext(ctx, "quoted", slog.Int("strikes", len(quotes)))
	if err := report.Quotes(a.stdout, quotes); err != nil {
		return fmt.Errorf("app: quote: report: %w", err)
	}
	return nil
}

// ServeMode runs the HTTP API and the websocket hub until ctx is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	p, err := a.cfg.Params()
	if err != nil {
		return fmt.Errorf("app: serve: %w", err)
	}

	// With a bus, records reach the hub through its subscription, already
	// encoded with the bus codec. Without one they are broadcast in process.
	wsCodec := deps.BusCodec
	var busChannels []string
	if deps.SignalBus != nil {
		busChannels = []string{deps.BusChannel}
		if busChannels[0] == "" {
			busChannels[0] = sink.DefaultChannel
		}
	} else if wsCodec, err = codec.ByName(a.cfg.Server.WSCodec); err != nil {
		return fmt.Errorf("app: serve: %w", err)
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:        a.cfg.Mode,
		StartedAt:   time.Now().UTC(),
		BusChannels: busChannels,
		Binary:      wsCodec.Name() == codec.NameProto,
	})

	sinks := func(runID string) ([]domain.RecordSink, error) {
		out, err := deps.TransportSinks(runID)
		if err != nil {
			return nil, err
		}
		if deps.SignalBus == nil {
			out = append(out, sink.NewBroadcast(hub, wsCodec, runID))
		}
		return out, nil
	}

	registry := strategy.NewDefaultRegistry(strategy.Config{RebalanceBand: p.RebalanceBand})
	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger, deps.Health),
		Status:   handler.NewStatusHandler(a.cfg.Mode, p, hub),
		Policies: handler.NewPolicyHandler(registry),
		Simulations: handler.NewSimulationHandler(handler.SimulationConfig{
			Base:             p,
			DriftFollowsRate: a.cfg.Simulation.Drift == nil,
			MaxSteps:         a.cfg.Server.MaxSteps,
			Registry:         registry,
			Sinks:            sinks,
			Locks:            deps.LockManager,
			Notifier:         deps.Notifier,
		}, a.logger),
		Quote: handler.NewQuoteHandler(p, a.cfg.Quote.Spread, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimiter: deps.RateLimiter,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	if spec := a.cfg.Server.Schedule; spec != "" {
		stop, err := startSchedule(ctx, spec, &scheduledRuns{
			base:     p,
			registry: registry,
			sinks:    sinks,
			notifier: deps.Notifier,
			logger:   a.logger.With(slog.String("component", "schedule")),
		})
		if err != nil {
			return fmt.Errorf("app: serve: schedule %q: %w", spec, err)
		}
		a.logger.InfoContext(ctx, "scheduled runs enabled", slog.String("schedule", spec))
		g.Go(func() error {
			<-ctx.Done()
			stop()
			return nil
		})
	}
	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)))
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}
