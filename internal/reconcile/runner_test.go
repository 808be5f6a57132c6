//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package reconcile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-reconcile/internal/loader"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/retry"
)

func newTestRunner(src *memorySource, gate StorageGate) *Runner {
	l := loader.New(loader.Options{
		HistoricalPageSize: 100,
		MaxPages:           50,
		Policy:             retry.Fixed{MaxAttempts: 2},
	})
	return NewRunner(src, gate, l, NewEngine(DefaultThresholds()), DefaultTopIssues)
}

func window() RunOptions {
	return RunOptions{Start: day("2024-01-01"), End: day("2024-01-31"), PageSize: 2}
}

func TestRunSuccess(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{sales: sales, inventory: inventory}
	gate := fixedGate{model.StorageUsageSnapshot{Status: model.StorageOK}}

	opts := window()
	opts.SKUSummary = true
	res, err := newTestRunner(src, gate).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Empty(t, res.Reason)
	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 4, res.SalesRows)
	assert.Equal(t, 5, res.InventoryRows)
	assert.Len(t, res.Rows, 4)
	assert.Len(t, res.Adjustments, 2)
	assert.Equal(t, 2, res.Report.Adjustments.Count)
	assert.Nil(t, res.Apply)
	assert.NotEmpty(t, res.SKUs)
	assert.False(t, res.Truncated)
}

func TestRunRefusedWhenStorageCritical(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{sales: sales, inventory: inventory}
	gate := fixedGate{model.StorageUsageSnapshot{Status: model.StorageCritical, UsagePercentage: 96}}

	res, err := newTestRunner(src, gate).Run(context.Background(), window())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, ReasonStorageQuota, res.Reason)
	assert.Zero(t, src.calls)
	assert.Empty(t, res.Rows)
}

func TestRunProceedsWhenStorageUnknown(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{sales: sales, inventory: inventory}
	gate := fixedGate{model.StorageUsageSnapshot{Status: model.StorageError, Error: "permission denied"}}

	res, err := newTestRunner(src, gate).Run(context.Background(), window())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	require.NotNil(t, res.Storage)
	assert.Equal(t, model.StorageError, res.Storage.Status)
}

func TestRunRejectsInvalidWindow(t *testing.T) {
	src := &memorySource{}
	opts := RunOptions{Start: day("2024-02-01"), End: day("2024-01-01"), PageSize: 10}

	_, err := newTestRunner(src, fixedGate{}).Run(context.Background(), opts)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, loader.ErrInvalidRequest)
	assert.Zero(t, src.calls)
}

func TestRunRejectsEmptyDatasets(t *testing.T) {
	_, err := newTestRunner(&memorySource{}, nil).Run(context.Background(), window())
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunFailsOnLoadError(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{sales: sales, inventory: inventory, salesErr: errWarehouseDown}

	res, err := newTestRunner(src, nil).Run(context.Background(), window())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Reason, "failed to load sales")
	assert.Empty(t, res.Rows)
}

func TestRunContinuesWithoutProducts(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{sales: sales, inventory: inventory, productsErr: errWarehouseDown}

	res, err := newTestRunner(src, nil).Run(context.Background(), window())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	for _, r := range res.Rows {
		assert.Nil(t, r.Product)
	}
}

func TestRunAppliesAdjustments(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{sales: sales, inventory: inventory}

	opts := window()
	opts.ApplyAdjustments = true
	res, err := newTestRunner(src, nil).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	require.NotNil(t, res.Apply)
	assert.True(t, res.Apply.OK())
	assert.Equal(t, int64(150), stockOf(src.inventory, "I1")+stockOf(src.inventory, "I2"))
}

func TestRunReportsPartialApplyFailure(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{
		sales:     sales,
		inventory: inventory,
		applyErr:  map[string]error{"INV_ADJ_P2_20240110": errWarehouseDown},
	}

	opts := window()
	opts.ApplyAdjustments = true
	res, err := newTestRunner(src, nil).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "1 of 2 adjustments failed", res.Reason)
	assert.Equal(t, int64(150), stockOf(src.inventory, "I1")+stockOf(src.inventory, "I2"))
}

func TestRunDeclinedConfirmation(t *testing.T) {
	sales, inventory := mixedRows()
	src := &memorySource{sales: sales, inventory: inventory}

	asked := 0
	opts := window()
	opts.ApplyAdjustments = true
	opts.Confirm = func(adjs []model.AdjustmentRecord) (bool, error) {
		asked++
		return false, nil
	}
	res, err := newTestRunner(src, nil).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, asked)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Nil(t, res.Apply)
	assert.Equal(t, int64(120), stockOf(src.inventory, "I1"))
}
