package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// grid returns a spread of valid inputs around the money.
func grid() [][5]float64 {
	var out [][5]float64
	for _, s := range []float64{20, 80, 100, 125, 400} {
		for _, r := range []float64{-0.01, 0, 0.05} {
			for _, sigma := range []float64{0, 0.05, 0.2, 0.8, 2.5} {
				for _, tau := range []float64{0, 1e-6, 30.0 / 365, 1, 5} {
					out = append(out, [5]float64{s, 100, r, sigma, tau})
				}
			}
		}
	}
	return out
}

func TestBlackScholesReferenceCase(t *testing.T) {
	// S=100, K=100, r=5%, σ=20%, T=1 is the textbook regression point.
	call, err := Price(100, 100, 0.05, 0.2, 1, domain.OptionTypeCall)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	put, err := Price(100, 100, 0.05, 0.2, 1, domain.OptionTypePut)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !almostEqual(call, 10.450583572185565, 1e-8) {
		t.Errorf("call = %.12f, want 10.450583572186", call)
	}
	if !almostEqual(put, 5.573526022256971, 1e-8) {
		t.Errorf("put = %.12f, want 5.573526022257", put)
	}
}

func TestThirtyDayAtTheMoneyPremium(t *testing.T) {
	v, err := Price(100, 100, 0, 0.15, 30.0/365, domain.OptionTypeCall)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(v, 1.7154657696000513, 1e-9) {
		t.Errorf("premium = %.16f, want 1.7154657696000513", v)
	}
}

func TestPutCallParity(t *testing.T) {
	for _, in := range grid() {
		s, k, r, sigma, tau := in[0], in[1], in[2], in[3], in[4]
		c, err := Price(s, k, r, sigma, tau, domain.OptionTypeCall)
		if err != nil {
			t.Fatal(err)
		}
		p, err := Price(s, k, r, sigma, tau, domain.OptionTypePut)
		if err != nil {
			t.Fatal(err)
		}
		want := s - k*math.Exp(-r*tau)
		if !almostEqual(c-p, want, 1e-9*math.Max(1, s)) {
			t.Errorf("S=%v r=%v σ=%v τ=%v: C-P = %.12f, want %.12f", s, r, sigma, tau, c-p, want)
		}
	}
}

func TestValueNonNegativeAndDeltaBounds(t *testing.T) {
	for _, in := range grid() {
		s, k, r, sigma, tau := in[0], in[1], in[2], in[3], in[4]
		for _, typ := range []domain.OptionType{domain.OptionTypeCall, domain.OptionTypePut} {
			g, err := BlackScholes(s, k, r, sigma, tau, typ)
			if err != nil {
				t.Fatal(err)
			}
			if g.Value < 0 || math.IsNaN(g.Value) {
				t.Errorf("%s S=%v σ=%v τ=%v: value %v", typ, s, sigma, tau, g.Value)
			}
			lo, hi := 0.0, 1.0
			if typ == domain.OptionTypePut {
				lo, hi = -1, 0
			}
			if g.Delta < lo || g.Delta > hi || math.IsNaN(g.Delta) {
				t.Errorf("%s S=%v σ=%v τ=%v: delta %v outside [%v,%v]", typ, s, sigma, tau, g.Delta, lo, hi)
			}
			if math.IsNaN(g.Gamma) || math.IsNaN(g.Theta) || g.Gamma < 0 {
				t.Errorf("%s S=%v σ=%v τ=%v: gamma %v theta %v", typ, s, sigma, tau, g.Gamma, g.Theta)
			}
		}
	}
}

func TestConvergesToIntrinsicNearExpiry(t *testing.T) {
	tests := []struct {
		s   float64
		typ domain.OptionType
	}{
		{120, domain.OptionTypeCall},
		{80, domain.OptionTypeCall},
		{80, domain.OptionTypePut},
		{120, domain.OptionTypePut},
		{100.5, domain.OptionTypeCall},
	}
	for _, tt := range tests {
		v, err := Price(tt.s, 100, 0.05, 0.3, 1e-9, tt.typ)
		if err != nil {
			t.Fatal(err)
		}
		want := Intrinsic(tt.s, 100, tt.typ)
		if !almostEqual(v, want, 1e-3) {
			t.Errorf("%s S=%v: value %v, want intrinsic %v", tt.typ, tt.s, v, want)
		}
	}
}

func TestAtExpiry(t *testing.T) {
	tests := []struct {
		name  string
		s     float64
		typ   domain.OptionType
		value float64
		delta float64
	}{
		{"call itm", 110, domain.OptionTypeCall, 10, 1},
		{"call otm", 90, domain.OptionTypeCall, 0, 0},
		{"call atm", 100, domain.OptionTypeCall, 0, 0},
		{"put itm", 90, domain.OptionTypePut, 10, -1},
		{"put otm", 110, domain.OptionTypePut, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BlackScholes(tt.s, 100, 0.05, 0.2, 0, tt.typ)
			if err != nil {
				t.Fatal(err)
			}
			if g.Value != tt.value || g.Delta != tt.delta {
				t.Errorf("value/delta = %v/%v, want %v/%v", g.Value, g.Delta, tt.value, tt.delta)
			}
			if g.Gamma != 0 || g.Theta != 0 {
				t.Errorf("gamma/theta = %v/%v, want 0/0", g.Gamma, g.Theta)
			}
		})
	}
}

func TestZeroVolatilityGrowsAtRate(t *testing.T) {
	r, tau := 0.05, 1.0
	disc := 120 * math.Exp(-r*tau)

	call, err := BlackScholes(100, 120, r, 0, tau, domain.OptionTypeCall)
	if err != nil {
		t.Fatal(err)
	}
	if call.Value != 0 || call.Delta != 0 || call.Gamma != 0 {
		t.Errorf("otm call = %+v, want zero", call)
	}

	put, err := BlackScholes(100, 120, r, 0, tau, domain.OptionTypePut)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(put.Value, disc-100, 1e-12) || put.Delta != -1 || put.Gamma != 0 {
		t.Errorf("itm put = %+v, want value %v delta -1", put, disc-100)
	}
	if !almostEqual(put.Theta, r*disc, 1e-12) {
		t.Errorf("itm put theta = %v, want %v", put.Theta, r*disc)
	}

	itm, err := BlackScholes(130, 120, r, 0, tau, domain.OptionTypeCall)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(itm.Value, 130-disc, 1e-12) || itm.Delta != 1 {
		t.Errorf("itm call = %+v", itm)
	}
}

func TestVanishingVolatilityStaysFinite(t *testing.T) {
	for _, sigma := range []float64{5e-311, 1e-305, math.SmallestNonzeroFloat64} {
		for _, typ := range []domain.OptionType{domain.OptionTypeCall, domain.OptionTypePut} {
			g, err := BlackScholes(100, 100, 0, sigma, 30.0/365, typ)
			if err != nil {
				t.Fatal(err)
			}
			for name, v := range map[string]float64{
				"value": g.Value, "delta": g.Delta, "gamma": g.Gamma,
				"vega": g.Vega, "theta": g.Theta, "rho": g.Rho,
			} {
				if math.IsInf(v, 0) || math.IsNaN(v) {
					t.Errorf("sigma %v %s: %s = %v", sigma, typ, name, v)
				}
			}
		}
	}
}

func TestGreeksMatchFiniteDifferences(t *testing.T) {
	const (
		s, k, r, sigma, tau = 105.0, 100.0, 0.03, 0.25, 0.5
		h                   = 1e-3
	)
	for _, typ := range []domain.OptionType{domain.OptionTypeCall, domain.OptionTypePut} {
		g, err := BlackScholes(s, k, r, sigma, tau, typ)
		if err != nil {
			t.Fatal(err)
		}
		up, _ := Price(s+h, k, r, sigma, tau, typ)
		dn, _ := Price(s-h, k, r, sigma, tau, typ)
		if fd := (up - dn) / (2 * h); !almostEqual(g.Delta, fd, 1e-6) {
			t.Errorf("%s delta %v, finite difference %v", typ, g.Delta, fd)
		}
		if fd := (up - 2*g.Value + dn) / (h * h); !almostEqual(g.Gamma, fd, 1e-4) {
			t.Errorf("%s gamma %v, finite difference %v", typ, g.Gamma, fd)
		}
		later, _ := Price(s, k, r, sigma, tau-h, typ)
		earlier, _ := Price(s, k, r, sigma, tau+h, typ)
		if fd := (later - earlier) / (2 * h); !almostEqual(g.Theta, fd, 1e-4) {
			t.Errorf("%s theta %v, finite difference %v", typ, g.Theta, fd)
		}
		volUp, _ := Price(s, k, r, sigma+h, tau, typ)
		volDn, _ := Price(s, k, r, sigma-h, tau, typ)
		if fd := (volUp - volDn) / (2 * h); !almostEqual(g.Vega, fd, 1e-4) {
			t.Errorf("%s vega %v, finite difference %v", typ, g.Vega, fd)
		}
	}
}

func TestLongCallThetaIsNegative(t *testing.T) {
	g, err := BlackScholes(100, 100, 0.05, 0.3, 30.0/365, domain.OptionTypeCall)
	if err != nil {
		t.Fatal(err)
	}
	if g.Theta >= 0 {
		t.Errorf("theta = %v, want negative", g.Theta)
	}
}

func TestInvalidInputs(t *testing.T) {
	tests := []struct {
		name                string
		s, k, r, sigma, tau float64
		typ                 domain.OptionType
	}{
		{"zero spot", 0, 100, 0, 0.2, 1, domain.OptionTypeCall},
		{"negative strike", 100, -1, 0, 0.2, 1, domain.OptionTypeCall},
		{"negative vol", 100, 100, 0, -0.1, 1, domain.OptionTypePut},
		{"negative tau", 100, 100, 0, 0.2, -1, domain.OptionTypePut},
		{"nan spot", math.NaN(), 100, 0, 0.2, 1, domain.OptionTypeCall},
		{"inf rate", 100, 100, math.Inf(1), 0.2, 1, domain.OptionTypeCall},
		{"bad type", 100, 100, 0, 0.2, 1, domain.OptionType("straddle")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BlackScholes(tt.s, tt.k, tt.r, tt.sigma, tt.tau, tt.typ)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNormCDF(t *testing.T) {
	if NormCDF(0) != 0.5 {
		t.Errorf("N(0) = %v", NormCDF(0))
	}
	if !almostEqual(NormCDF(1.96), 0.9750021048517795, 1e-12) {
		t.Errorf("N(1.96) = %v", NormCDF(1.96))
	}
	if !almostEqual(NormCDF(-1)+NormCDF(1), 1, 1e-15) {
		t.Errorf("N(-1)+N(1) != 1")
	}
}
