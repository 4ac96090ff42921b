package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.PortfolioRun{
		RunID:        "run1",
		BatchID:      "batch1",
		Currency:     "INR",
		TotalCapital: 100000,
		KPIs:         domain.KPIMap{"total_pnl": 120},
		EquityCurve: []domain.CurvePoint{
			{Timestamp: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Value: 100000},
		},
	}

	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Currency != "INR" || float64(got.KPIs["total_pnl"]) != 120 {
		t.Errorf("Run mismatch: %+v", got)
	}
}

func TestRunStore_CopyIsolation(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.PortfolioRun{
		RunID: "run1",
		KPIs:  domain.KPIMap{"total_pnl": 120},
	}
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	got.KPIs["total_pnl"] = 999

	again, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if float64(again.KPIs["total_pnl"]) != 120 {
		t.Errorf("Stored run mutated through returned copy: %v", again.KPIs["total_pnl"])
	}
}

func TestRunStore_DuplicateKey(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.PortfolioRun{RunID: "run1"}
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_GetByBatchIDOrdered(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []*domain.PortfolioRun{
		{RunID: "r2", BatchID: "batch1", CreatedAt: base.Add(time.Hour)},
		{RunID: "r1", BatchID: "batch1", CreatedAt: base},
		{RunID: "r3", BatchID: "batch2", CreatedAt: base},
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.RunID, err)
		}
	}

	got, err := store.GetByBatchID(ctx, "batch1")
	if err != nil {
		t.Fatalf("GetByBatchID failed: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "r1" || got[1].RunID != "r2" {
		t.Errorf("Wrong result: %+v", got)
	}
}
