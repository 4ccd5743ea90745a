package strategy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

func TestDeltaHedgerTarget(t *testing.T) {
	tests := []struct {
		name      string
		band      float64
		delta     float64
		contracts float64
		current   float64
		want      float64
	}{
		{"short call buys delta", 0, 0.55, 1, 0, 0.55},
		{"short put sells delta", 0, -0.4, 1, 0, -0.4},
		{"scales with contracts", 0, 0.5, 10, 2, 5},
		{"inside band keeps position", 0.01, 0.505, 1, 0.5, 0.5},
		{"outside band trades", 0.001, 0.51, 1, 0.5, 0.51},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDeltaHedger(Config{RebalanceBand: tt.band})
			got := h.Target(domain.Greeks{Delta: tt.delta}, tt.contracts, tt.current)
			if got != tt.want {
				t.Errorf("Target = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnhedgedStaysFlat(t *testing.T) {
	if got := (Unhedged{}).Target(domain.Greeks{Delta: 0.9}, 3, 1.5); got != 0 {
		t.Errorf("Target = %v, want 0", got)
	}
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(Config{})
	if got, want := r.List(), []string{NameDelta, NameNone}; !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}

	h, err := r.Get(" Delta ")
	if err != nil {
		t.Fatal(err)
	}
	if h.Name() != NameDelta {
		t.Errorf("Name = %q", h.Name())
	}

	if _, err := r.Get("gamma_scalp"); !errors.Is(err, domain.ErrUnknownPolicy) {
		t.Errorf("err = %v, want ErrUnknownPolicy", err)
	}
}
