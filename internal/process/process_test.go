package process

import (
	"math"
	"testing"
)

func TestGBMIsReproducibleForSeed(t *testing.T) {
	run := func() []float64 {
		g, err := NewGBM(0.05, 0.2, 1.0/252, NewSource(42))
		if err != nil {
			t.Fatal(err)
		}
		out := make([]float64, 500)
		s := 100.0
		for i := range out {
			s = g.Next(s)
			out[i] = s
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d: %v != %v", i, a[i], b[i])
		}
	}

	other, _ := NewGBM(0.05, 0.2, 1.0/252, NewSource(43))
	if other.Next(100) == a[0] {
		t.Errorf("different seeds produced the same first step")
	}
}

func TestIncrementAlwaysPositive(t *testing.T) {
	for _, z := range []float64{-1e6, -40, -8, -1, 0, 1, 8, 40} {
		for _, vol := range []float64{0, 0.15, 0.8, 3} {
			s := Increment(100, 0.05, vol, 1.0/365, z)
			if !(s > 0) {
				t.Errorf("z=%v vol=%v: next price %v", z, vol, s)
			}
		}
	}
}

func TestIncrementFormula(t *testing.T) {
	const s, mu, vol, dt, z = 100.0, 0.03, 0.25, 0.01, 1.3
	want := s * math.Exp((mu-vol*vol/2)*dt+vol*math.Sqrt(dt)*z)
	if got := Increment(s, mu, vol, dt, z); got != want {
		t.Errorf("Increment = %v, want %v", got, want)
	}

	// Without diffusion the price grows at the drift.
	if got, want := Increment(100, 0.05, 0, 1, 123), 100*math.Exp(0.05); math.Abs(got-want) > 1e-12 {
		t.Errorf("zero-vol step = %v, want %v", got, want)
	}
}

func TestNewGBMRejectsBadInput(t *testing.T) {
	if _, err := NewGBM(0, -0.1, 0.01, NewSource(1)); err == nil {
		t.Error("negative volatility accepted")
	}
	if _, err := NewGBM(0, 0.1, -0.01, NewSource(1)); err == nil {
		t.Error("negative dt accepted")
	}
	if _, err := NewGBM(0, 0.1, 0.01, nil); err == nil {
		t.Error("nil source accepted")
	}
}

func TestFixedSource(t *testing.T) {
	f := NewFixed(1, -2)
	if f.NormFloat64() != 1 || f.NormFloat64() != -2 || f.NormFloat64() != 0 {
		t.Error("fixed source did not replay draws then zero")
	}
}

func TestReplay(t *testing.T) {
	r, err := NewReplay([]float64{101, 99, 98})
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d", r.Len())
	}
	for _, want := range []float64{101, 99, 98, 98} {
		if got := r.Next(0); got != want {
			t.Errorf("Next = %v, want %v", got, want)
		}
	}

	if _, err := NewReplay([]float64{100, 0}); err == nil {
		t.Error("zero price accepted")
	}
	if _, err := NewReplay(nil); err == nil {
		t.Error("empty path accepted")
	}
}

func TestBridgeEndsAtTarget(t *testing.T) {
	path, err := Bridge(100, 55, 0.8, (30.0/365)/1000, 1000, NewSource(42))
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 1000 {
		t.Fatalf("len = %d", len(path))
	}
	if path[len(path)-1] != 55 {
		t.Errorf("end = %v, want 55", path[len(path)-1])
	}
	for i, p := range path {
		if !(p > 0) {
			t.Fatalf("price %v at %d", p, i)
		}
	}

	again, _ := Bridge(100, 55, 0.8, (30.0/365)/1000, 1000, NewSource(42))
	for i := range path {
		if path[i] != again[i] {
			t.Fatalf("bridge not reproducible at %d", i)
		}
	}
}
