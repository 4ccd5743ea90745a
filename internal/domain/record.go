package domain

// RunState is the state of the simulation's step counter.
type RunState string

const (
	RunStateRunning RunState = "running"
	RunStateSettled RunState = "settled"
)

// StepRecord is the public per-step output of a simulation run. Records are
// emitted in step order, starting with step 0 at t=0.
type StepRecord struct {
	Step         int      `json:"step"`
	Time         float64  `json:"time"`
	TimeToExpiry float64  `json:"time_to_expiry"`
	Spot         float64  `json:"spot"`
	FairValue    float64  `json:"fair_value"`
	Delta        float64  `json:"delta"`
	Gamma        float64  `json:"gamma"`
	Theta        float64  `json:"theta"`
	Hedge        float64  `json:"hedge"`
	Trade        float64  `json:"trade"`
	Cash         float64  `json:"cash"`
	PnL          float64  `json:"pnl"`
	State        RunState `json:"state"`
}

// RunSummary aggregates a finished run.
type RunSummary struct {
	RunID        string     `json:"run_id"`
	OptionType   OptionType `json:"option_type"`
	Hedging      string     `json:"hedging"`
	Volatility   float64    `json:"volatility"`
	Steps        int        `json:"steps"`
	Premium      float64    `json:"premium"`
	InitialSpot  float64    `json:"initial_spot"`
	FinalSpot    float64    `json:"final_spot"`
	Payoff       float64    `json:"payoff"`
	FinalPnL     float64    `json:"final_pnl"`
	MinPnL       float64    `json:"min_pnl"`
	MaxPnL       float64    `json:"max_pnl"`
	MaxDrawdown  float64    `json:"max_drawdown"`
	PnLStdDev    float64    `json:"pnl_step_stddev"`
	RealizedVol  float64    `json:"realized_vol"`
	Trades       int        `json:"trades"`
	TradedQty    float64    `json:"traded_qty"`
	TradingCosts float64    `json:"trading_costs"`
	State        RunState   `json:"state"`
}

// RecordEvent is a StepRecord tagged with its run, as published to
// transports shared by several runs.
type RecordEvent struct {
	RunID  string     `json:"run_id"`
	Record StepRecord `json:"record"`
}
