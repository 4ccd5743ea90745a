package app

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/hedgesim/internal/config"
	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/server/handler"
	"github.com/alanyoungcy/hedgesim/internal/simulation"
	"github.com/alanyoungcy/hedgesim/internal/sink"
	"github.com/alanyoungcy/hedgesim/internal/strategy"
)

// scheduledRuns replays the configured simulation on a cron schedule. The
// n-th run uses seed base.Seed+n, so every run draws a new path while the
// sequence stays reproducible.
type scheduledRuns struct {
	base     domain.Params
	registry *strategy.Registry
	sinks    handler.SinkFactory
	notifier handler.RunNotifier
	logger   *slog.Logger
	runs     atomic.Uint64
}

func (s *scheduledRuns) run(ctx context.Context) (domain.RunSummary, error) {
	p := s.base
	p.Seed += s.runs.Add(1)

	sim, err := simulation.New(p, simulation.WithLogger(s.logger), simulation.WithRegistry(s.registry))
	if err != nil {
		return domain.RunSummary{}, err
	}
	extra, err := s.sinks(sim.RunID())
	if err != nil {
		return domain.RunSummary{}, err
	}
	sinks := sink.Multi(extra)
	sum, err := sim.Run(ctx, sinks)
	if cerr := sinks.Close(); cerr != nil {
		s.logger.WarnContext(ctx, "close sinks", slog.String("error", cerr.Error()))
	}
	if err != nil {
		return domain.RunSummary{}, err
	}
	if s.notifier != nil {
		if err := s.notifier.RunSettled(ctx, sum); err != nil {
			s.logger.WarnContext(ctx, "notify run settled", slog.String("error", err.Error()))
		}
	}
	return sum, nil
}

// startSchedule registers s on spec and starts the scheduler. Overlapping
// ticks are skipped. The returned stop function waits for a running job.
func startSchedule(ctx context.Context, spec string, s *scheduledRuns) (func(), error) {
	c := cron.New(
		cron.WithParser(config.ScheduleParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		sum, err := s.run(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "scheduled run failed", slog.String("error", err.Error()))
			return
		}
		s.logger.InfoContext(ctx, "scheduled run settled",
			slog.String("run_id", sum.RunID),
			slog.Float64("final_pnl", sum.FinalPnL),
		)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
