package domain

import (
	"fmt"
	"strings"
)

// OptionType distinguishes calls from puts. A run prices a single type.
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" in any case, with "c"/"p" as short
// forms.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return OptionTypeCall, nil
	case "put", "p":
		return OptionTypePut, nil
	default:
		return "", fmt.Errorf("option type %q: %w", s, ErrInvalidInput)
	}
}

// Valid reports whether t is one of the supported option types.
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// OptionContract is the single option the desk sells at t=0.
type OptionContract struct {
	Strike float64
	Expiry float64 // years from simulation start
	Type   OptionType
}

// MarketState is the market the pricing model sees at one step.
type MarketState struct {
	Spot         float64
	Volatility   float64
	Rate         float64
	TimeToExpiry float64 // years
}
