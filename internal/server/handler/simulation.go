package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/simulation"
	"github.com/alanyoungcy/hedgesim/internal/sink"
	"github.com/alanyoungcy/hedgesim/internal/strategy"
)

// runLockTTL bounds how long a crashed replica can block a run ID.
const runLockTTL = 2 * time.Minute

// SinkFactory builds the extra record sinks (bus, broadcast, kafka) for one
// run. The handler closes them when the run ends.
type SinkFactory func(runID string) ([]domain.RecordSink, error)

// RunNotifier is told about every settled run.
type RunNotifier interface {
	RunSettled(ctx context.Context, sum domain.RunSummary) error
}

// SimulationConfig wires a SimulationHandler.
type SimulationConfig struct {
	// Base is the configured run; requests override individual fields.
	Base domain.Params
	// DriftFollowsRate makes a request's rate override move the drift too,
	// as when the config leaves drift unset.
	DriftFollowsRate bool
	MaxSteps         int
	Registry         *strategy.Registry
	Sinks            SinkFactory        // optional
	Locks            domain.LockManager // optional
	Notifier         RunNotifier        // optional
}

// SimulationHandler runs simulations on request.
type SimulationHandler struct {
	cfg    SimulationConfig
	logger *slog.Logger
}

// NewSimulationHandler creates a SimulationHandler.
func NewSimulationHandler(cfg SimulationConfig, logger *slog.Logger) *SimulationHandler {
	if cfg.Registry == nil {
		cfg.Registry = strategy.NewDefaultRegistry(strategy.Config{RebalanceBand: cfg.Base.RebalanceBand})
	}
	return &SimulationHandler{cfg: cfg, logger: logHandler(logger, "simulation")}
}

// SimulationRequest overrides the configured parameters. Absent fields keep
// their configured value.
type SimulationRequest struct {
	Spot               *float64 `json:"spot"`
	Strike             *float64 `json:"strike"`
	Rate               *float64 `json:"rate"`
	Volatility         *float64 `json:"volatility"`
	Drift              *float64 `json:"drift"`
	ExpiryDays         *float64 `json:"expiry_days"`
	Steps              *int     `json:"steps"`
	OptionType         *string  `json:"option_type"`
	Seed               *uint64  `json:"seed"`
	Contracts          *float64 `json:"contracts"`
	TransactionCostBps *float64 `json:"transaction_cost_bps"`
	RebalanceBand      *float64 `json:"rebalance_band"`
	Hedging            *string  `json:"hedging"`
	// IncludeRecords controls whether the step records are returned.
	// Defaults to true.
	IncludeRecords *bool `json:"include_records"`
}

type simulationResponse struct {
	Summary domain.RunSummary   `json:"summary"`
	Records []domain.StepRecord `json:"records,omitempty"`
}

// Params applies the request on top of base.
func (req SimulationRequest) Params(base domain.Params, driftFollowsRate bool) (domain.Params, error) {
	p := base
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Spot, req.Spot)
	set(&p.Strike, req.Strike)
	set(&p.Volatility, req.Volatility)
	set(&p.Contracts, req.Contracts)
	set(&p.TransactionCostBps, req.TransactionCostBps)
	set(&p.RebalanceBand, req.RebalanceBand)
	if req.Rate != nil {
		p.Rate = *req.Rate
		if driftFollowsRate {
			p.Drift = *req.Rate
		}
	}
	set(&p.Drift, req.Drift)
	if req.ExpiryDays != nil {
		p.Expiry = *req.ExpiryDays / 365
	}
	if req.Steps != nil {
		p.Steps = *req.Steps
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
	if req.Hedging != nil {
		p.Hedging = *req.Hedging
	}
	if req.OptionType != nil {
		typ, err := domain.ParseOptionType(*req.OptionType)
		if err != nil {
			return domain.Params{}, &domain.ConfigError{Field: "option_type", Value: *req.OptionType, Reason: "must be call or put"}
		}
		p.OptionType = typ
	}
	return p, nil
}

// Create runs one simulation and returns its summary and records.
// POST /api/simulations
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := req.Params(h.cfg.Base, h.cfg.DriftFollowsRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.cfg.MaxSteps > 0 && p.Steps > h.cfg.MaxSteps {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("steps %d exceeds the limit of %d", p.Steps, h.cfg.MaxSteps))
		return
	}

	opts := []simulation.Option{simulation.WithLogger(h.logger)}
	// The shared registry's delta hedger carries the configured band; a
	// request with its own band gets the built-ins instead.
	if p.RebalanceBand == h.cfg.Base.RebalanceBand {
		opts = append(opts, simulation.WithRegistry(h.cfg.Registry))
	}
	sim, err := simulation.New(p, opts...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.cfg.Locks != nil {
		unlock, err := h.cfg.Locks.Acquire(r.Context(), "run:"+sim.RunID(), runLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				writeError(w, http.StatusConflict, "an identical simulation is already running")
				return
			}
			h.logger.ErrorContext(r.Context(), "acquire run lock", slog.String("error", err.Error()))
			writeError(w, http.StatusServiceUnavailable, "lock unavailable")
			return
		}
		defer unlock()
	}

	mem := sink.NewMemory()
	sinks := sink.Multi{mem}
	if h.cfg.Sinks != nil {
		extra, err := h.cfg.Sinks(sim.RunID())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "build sinks", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "record transport unavailable")
			return
		}
		sinks = append(sinks, extra...)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			h.logger.WarnContext(r.Context(), "close sinks", slog.String("error", err.Error()))
		}
	}()

	sum, err := sim.Run(r.Context(), sinks)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "simulation failed",
			slog.String("run_id", sim.RunID()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	if h.cfg.Notifier != nil {
		if err := h.cfg.Notifier.RunSettled(r.Context(), sum); err != nil {
			h.logger.WarnContext(r.Context(), "notify run settled", slog.String("error", err.Error()))
		}
	}

	resp := simulationResponse{Summary: sum}
	if req.IncludeRecords == nil || *req.IncludeRecords {
		resp.Records = mem.Records()
	}
	writeJSON(w, http.StatusCreated, resp)
}
