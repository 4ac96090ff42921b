package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
	. "portfolio-lab/internal/storage/postgres"
)

func createTestBatch(t *testing.T, ctx context.Context, pool *Pool, batchID string) *domain.Batch {
	t.Helper()

	batch := &domain.Batch{
		BatchID:      batchID,
		StrategyName: "Mean_Reversion",
		CreatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, NewBatchStore(pool).Insert(ctx, batch))
	return batch
}

func TestBatchStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBatchStore(pool)

	batch := &domain.Batch{
		BatchID:      "batch-001",
		StrategyName: "Mean_Reversion",
		CreatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Insert(ctx, batch))

	retrieved, err := store.GetByID(ctx, "batch-001")
	require.NoError(t, err)

	assert.Equal(t, batch.BatchID, retrieved.BatchID)
	assert.Equal(t, batch.StrategyName, retrieved.StrategyName)
	assert.True(t, batch.CreatedAt.Equal(retrieved.CreatedAt))
}

func TestBatchStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBatchStore(pool)

	batch := &domain.Batch{BatchID: "batch-001", StrategyName: "s", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Insert(ctx, batch))

	err := store.Insert(ctx, batch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBatchStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBatchStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBatchStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBatchStore(pool)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, &domain.Batch{BatchID: "b2", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.Insert(ctx, &domain.Batch{BatchID: "b1", CreatedAt: base}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b1", all[0].BatchID)
	assert.Equal(t, "b2", all[1].BatchID)
}
