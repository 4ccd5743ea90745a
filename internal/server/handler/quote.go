package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/pricing"
)

// QuoteHandler prices a two-sided market on the configured underlying.
type QuoteHandler struct {
	base   domain.Params
	spread float64
	logger *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler. base supplies spot, volatility,
// rate, strike and expiry when the request does not override them.
func NewQuoteHandler(base domain.Params, spread float64, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{base: base, spread: spread, logger: logHandler(logger, "quote")}
}

// GetQuote returns fair value, Greeks and bid/ask.
// GET /api/quote?strike=100&days=30&spread=0.04&type=call&spot=100&vol=0.3
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	p := h.base
	var err error
	var days, spread float64

	fields := []struct {
		name string
		dst  *float64
		def  float64
	}{
		{"strike", &p.Strike, p.Strike},
		{"spot", &p.Spot, p.Spot},
		{"vol", &p.Volatility, p.Volatility},
		{"rate", &p.Rate, p.Rate},
		{"days", &days, p.Expiry * 365},
		{"spread", &spread, h.spread},
	}
	for _, f := range fields {
		if *f.dst, err = queryFloat(r, f.name, f.def); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if s := r.URL.Query().Get("type"); s != "" {
		if p.OptionType, err = domain.ParseOptionType(s); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if spread < 0 {
		writeError(w, http.StatusBadRequest, "spread must be >= 0")
		return
	}

	q, err := pricing.MakeQuote(p.Market(p.Spot, days/365), domain.OptionContract{
		Strike: p.Strike, Expiry: days / 365, Type: p.OptionType,
	}, spread)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "quote failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "quote failed")
		return
	}
	writeJSON(w, http.StatusOK, q)
}
