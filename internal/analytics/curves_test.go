package analytics

import (
	"math"
	"testing"
)

func TestDrawdownSeries(t *testing.T) {
	c := curve(100, 120, 90, 120)

	dd := DrawdownSeries(c)
	expected := []float64{0, 0, -0.25, 0}
	for i, want := range expected {
		if math.Abs(dd[i].Value-want) > 1e-9 {
			t.Errorf("point %d: expected %v, got %v", i, want, dd[i].Value)
		}
	}
}

func TestDrawdownSeriesZeroStart(t *testing.T) {
	dd := DrawdownSeries(curve(0, 0))
	for i, p := range dd {
		if p.Value != 0 {
			t.Errorf("point %d: expected 0, got %v", i, p.Value)
		}
	}
}

func TestBuyHoldCurveMirrorsInput(t *testing.T) {
	c := curve(100000, 104000, 102960)

	bh := BuyHoldCurve(c)
	if len(bh) != len(c) {
		t.Fatalf("length mismatch: %d vs %d", len(bh), len(c))
	}
	for i := range c {
		if math.Abs(bh[i].Value-c[i].Value) > 1e-9 {
			t.Errorf("point %d: expected %v, got %v", i, c[i].Value, bh[i].Value)
		}
	}
	if BuyHoldCurve(nil) != nil {
		t.Fatal("expected nil for empty curve")
	}
}

func TestMaxRunup(t *testing.T) {
	if got := MaxRunup(curve(100, 90, 130, 120)); math.Abs(got-40) > 1e-9 {
		t.Errorf("expected 40, got %v", got)
	}
	if got := MaxRunup(nil); got != 0 {
		t.Errorf("empty curve: expected 0, got %v", got)
	}
}
