package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

func curvePoints(base time.Time, values ...float64) []domain.CurvePoint {
	out := make([]domain.CurvePoint, len(values))
	for i, v := range values {
		out[i] = domain.CurvePoint{Timestamp: base.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestCurvePointStore_InsertAndGet(t *testing.T) {
	store := NewCurvePointStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	points := curvePoints(base, 100000, 100200, 100150)
	if err := store.InsertBulk(ctx, "run1", storage.CurveEquity, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1", storage.CurveEquity)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 || got[1].Value != 100200 {
		t.Errorf("Unexpected curve: %+v", got)
	}
}

func TestCurvePointStore_CurvesAreIndependent(t *testing.T) {
	store := NewCurvePointStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "run1", storage.CurveEquity, curvePoints(base, 1)); err != nil {
		t.Fatalf("InsertBulk equity failed: %v", err)
	}
	// Same run and timestamp under a different curve name is allowed.
	if err := store.InsertBulk(ctx, "run1", storage.CurveDrawdown, curvePoints(base, 0)); err != nil {
		t.Fatalf("InsertBulk drawdown failed: %v", err)
	}

	dd, err := store.GetByRunID(ctx, "run1", storage.CurveDrawdown)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(dd) != 1 || dd[0].Value != 0 {
		t.Errorf("Unexpected drawdown curve: %+v", dd)
	}
}

func TestCurvePointStore_DuplicateTimestamp(t *testing.T) {
	store := NewCurvePointStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	if err := store.InsertBulk(ctx, "run1", storage.CurveEquity, curvePoints(base, 1, 2)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	err := store.InsertBulk(ctx, "run1", storage.CurveEquity, curvePoints(base.AddDate(0, 0, 1), 3))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestCurvePointStore_EmptyRun(t *testing.T) {
	store := NewCurvePointStore()

	got, err := store.GetByRunID(context.Background(), "missing", storage.CurveEquity)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty curve, got %d points", len(got))
	}
}
