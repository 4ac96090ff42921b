package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

func TestBatchStore_InsertAndGet(t *testing.T) {
	store := NewBatchStore()
	ctx := context.Background()

	batch := &domain.Batch{
		BatchID:      "batch1",
		StrategyName: "Mean_Reversion",
		CreatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	if err := store.Insert(ctx, batch); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "batch1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.StrategyName != "Mean_Reversion" {
		t.Errorf("StrategyName mismatch: got %q", got.StrategyName)
	}
}

func TestBatchStore_DuplicateKey(t *testing.T) {
	store := NewBatchStore()
	ctx := context.Background()

	batch := &domain.Batch{BatchID: "batch1", StrategyName: "s"}
	if err := store.Insert(ctx, batch); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, batch)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestBatchStore_NotFound(t *testing.T) {
	store := NewBatchStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBatchStore_GetAllOrdered(t *testing.T) {
	store := NewBatchStore()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	offsets := map[string]int{"b1": 0, "b2": 1, "b3": 2}
	for _, id := range []string{"b3", "b1", "b2"} {
		batch := &domain.Batch{BatchID: id, CreatedAt: base.Add(time.Duration(offsets[id]) * time.Hour)}
		if err := store.Insert(ctx, batch); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(all))
	}
	for i, want := range []string{"b1", "b2", "b3"} {
		if all[i].BatchID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, all[i].BatchID)
		}
	}
}

func TestBatchStore_InvalidInput(t *testing.T) {
	store := NewBatchStore()

	err := store.Insert(context.Background(), &domain.Batch{})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
