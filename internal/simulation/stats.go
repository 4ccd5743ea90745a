package simulation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// stats accumulates the run summary as records are produced.
type stats struct {
	steps       int
	initialSpot float64
	lastSpot    float64
	dt          float64

	pnl      float64
	minPnL   float64
	maxPnL   float64
	peak     float64
	drawdown float64

	// Step PnL changes and log returns, summarised at the end of the run.
	dPnL []float64
	ret  []float64

	trades    int
	tradedQty float64
}

func newStats(spot, dt float64, steps int) *stats {
	return &stats{
		initialSpot: spot,
		lastSpot:    spot,
		dt:          dt,
		dPnL:        make([]float64, 0, steps),
		ret:         make([]float64, 0, steps),
	}
}

func (s *stats) observeSpot(spot float64) {
	s.ret = append(s.ret, math.Log(spot/s.lastSpot))
	s.lastSpot = spot
}

func (s *stats) observeTrade(q float64) {
	s.trades++
	s.tradedQty += math.Abs(q)
}

func (s *stats) observePnL(pnl float64) {
	if s.steps == 0 {
		s.minPnL, s.maxPnL, s.peak = pnl, pnl, pnl
	} else {
		s.dPnL = append(s.dPnL, pnl-s.pnl)
	}
	s.steps++
	s.pnl = pnl
	s.minPnL = math.Min(s.minPnL, pnl)
	s.maxPnL = math.Max(s.maxPnL, pnl)
	s.peak = math.Max(s.peak, pnl)
	s.drawdown = math.Max(s.drawdown, s.peak-pnl)
}

func (s *stats) summary() domain.RunSummary {
	sum := domain.RunSummary{
		InitialSpot: s.initialSpot,
		FinalPnL:    s.pnl,
		MinPnL:      s.minPnL,
		MaxPnL:      s.maxPnL,
		MaxDrawdown: s.drawdown,
		PnLStdDev:   sampleStdDev(s.dPnL),
		Trades:      s.trades,
		TradedQty:   s.tradedQty,
	}
	if s.dt > 0 {
		sum.RealizedVol = sampleStdDev(s.ret) / math.Sqrt(s.dt)
	}
	return sum
}

// sampleStdDev is zero below two observations.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
