package equity

import (
	"math"
	"testing"
	"time"

	"portfolio-lab/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestBusinessDayWeekendRollsBack(t *testing.T) {
	// 2024-03-09 is a Saturday, 2024-03-10 a Sunday.
	friday := day("2024-03-08")
	if got := businessDay(ts("2024-03-09 11:00:00")); !got.Equal(friday) {
		t.Errorf("saturday: expected %v, got %v", friday, got)
	}
	if got := businessDay(ts("2024-03-10 11:00:00")); !got.Equal(friday) {
		t.Errorf("sunday: expected %v, got %v", friday, got)
	}
	if got := businessDay(ts("2024-03-08 23:59:59")); !got.Equal(friday) {
		t.Errorf("friday: expected %v, got %v", friday, got)
	}
}

func TestResampleForwardFills(t *testing.T) {
	points := []domain.CurvePoint{
		{Timestamp: ts("2024-03-04 15:30:00"), Value: 100}, // Monday
		{Timestamp: ts("2024-03-08 15:30:00"), Value: 110}, // Friday
	}

	out := resampleBusinessDaily(points)
	if len(out) != 5 {
		t.Fatalf("expected 5 business days, got %d", len(out))
	}
	expected := []float64{100, 100, 100, 100, 110}
	for i, want := range expected {
		if out[i].Value != want {
			t.Errorf("day %d: expected %v, got %v", i, want, out[i].Value)
		}
	}
	if !out[0].Timestamp.Equal(day("2024-03-04")) {
		t.Errorf("first day: got %v", out[0].Timestamp)
	}
	if !out[4].Timestamp.Equal(day("2024-03-08")) {
		t.Errorf("last day: got %v", out[4].Timestamp)
	}
}

func TestResampleWeekendPointLandsOnFriday(t *testing.T) {
	points := []domain.CurvePoint{
		{Timestamp: ts("2024-03-08 10:00:00"), Value: 100}, // Friday
		{Timestamp: ts("2024-03-09 12:00:00"), Value: 105}, // Saturday
	}

	out := resampleBusinessDaily(points)
	if len(out) != 1 {
		t.Fatalf("expected single friday bin, got %d", len(out))
	}
	if out[0].Value != 105 {
		t.Errorf("expected saturday value to win the friday bin, got %v", out[0].Value)
	}
}

func TestAlignAndSumUnion(t *testing.T) {
	a := domain.EquitySeries{Ticker: "INFY", Points: []domain.CurvePoint{
		{Timestamp: ts("2024-03-04 15:30:00"), Value: 100},
		{Timestamp: ts("2024-03-06 15:30:00"), Value: 120},
	}}
	b := domain.EquitySeries{Ticker: "TCS", Points: []domain.CurvePoint{
		{Timestamp: ts("2024-03-05 15:30:00"), Value: 200},
		{Timestamp: ts("2024-03-07 15:30:00"), Value: 210},
	}}

	out := AlignAndSum([]domain.EquitySeries{a, b})
	if len(out) != 4 {
		t.Fatalf("expected 4 days, got %d", len(out))
	}
	// Monday: only A has data. B joins Tuesday; both forward-fill after
	// their last point.
	expected := []float64{100, 300, 320, 330}
	for i, want := range expected {
		if out[i].Value != want {
			t.Errorf("day %d: expected %v, got %v", i, want, out[i].Value)
		}
	}
}

func TestAlignAndSumSkipsEmptySeries(t *testing.T) {
	a := domain.EquitySeries{Ticker: "INFY", Points: []domain.CurvePoint{
		{Timestamp: ts("2024-03-04 15:30:00"), Value: 100},
	}}
	out := AlignAndSum([]domain.EquitySeries{a, {Ticker: "TCS"}})
	if len(out) != 1 || out[0].Value != 100 {
		t.Fatalf("unexpected result: %+v", out)
	}
	if AlignAndSum(nil) != nil {
		t.Fatal("expected nil curve for no input")
	}
}

func TestAlignAndSumEqualCapitalSplit(t *testing.T) {
	// Two instruments with identical trades and half the capital each must
	// aggregate to the same curve as one instrument with the full capital.
	trades := func() []*domain.TradeRecord {
		return []*domain.TradeRecord{
			{EntryTime: ts("2024-03-04 09:15:00"), ExitTime: ts("2024-03-05 15:30:00"), TradeReturnPct: 0.04},
			{EntryTime: ts("2024-03-06 09:15:00"), ExitTime: ts("2024-03-07 15:30:00"), TradeReturnPct: -0.01},
		}
	}

	half1 := BuildSeries("A", trades(), 50000)
	half2 := BuildSeries("B", trades(), 50000)
	full := BuildSeries("A", trades(), 100000)

	combined := AlignAndSum([]domain.EquitySeries{half1, half2})
	single := AlignAndSum([]domain.EquitySeries{full})

	if len(combined) != len(single) {
		t.Fatalf("length mismatch: %d vs %d", len(combined), len(single))
	}
	for i := range combined {
		if math.Abs(combined[i].Value-single[i].Value) > 1e-6 {
			t.Errorf("day %d: expected %v, got %v", i, single[i].Value, combined[i].Value)
		}
	}
}
