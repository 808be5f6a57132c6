//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration

// Run with: go test -tags=integration ./internal/warehouse/...
// Set PGEDGE_TEST_CONN to override the connection string.

package warehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-reconcile/internal/datagen"
	"github.com/pgEdge/pgedge-reconcile/internal/db"
	"github.com/pgEdge/pgedge-reconcile/internal/loader"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/reconcile"
	"github.com/pgEdge/pgedge-reconcile/internal/retry"
	"github.com/pgEdge/pgedge-reconcile/internal/storage"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
	"github.com/pgEdge/pgedge-reconcile/internal/testutil"
	"github.com/pgEdge/pgedge-reconcile/internal/warehouse"
)

func seededWarehouse(t *testing.T, start, end time.Time) *warehouse.Warehouse {
	t.Helper()
	ctx := context.Background()
	pool := testutil.NewWarehouseDB(t, "warehouse")
	wh := warehouse.New(pool)
	require.NoError(t, wh.CreateSchema(ctx))
	require.NoError(t, db.SaveMetadata(ctx, pool, append(tables.List(), tables.DimProducts)))

	cfg := datagen.DefaultSeedConfig()
	cfg.Start, cfg.End = start, end
	cfg.Products = 10
	cfg.NoiseRate = 0.5
	cfg.Seed = 7
	seeder, err := datagen.NewSeeder(cfg, nil)
	require.NoError(t, err)
	_, err = seeder.Run(ctx, wh)
	require.NoError(t, err)
	return wh
}

func newRunner(wh *warehouse.Warehouse) *reconcile.Runner {
	return reconcile.NewRunner(wh,
		storage.NewManager(wh, storage.DefaultOptions()),
		loader.New(loader.Options{Policy: retry.Fixed{MaxAttempts: 1}}),
		reconcile.NewEngine(reconcile.DefaultThresholds()),
		reconcile.DefaultTopIssues)
}

func TestSyncAppliesAdjustments(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	wh := seededWarehouse(t, start, end)
	runner := newRunner(wh)

	first, err := runner.Run(ctx, reconcile.RunOptions{
		Start: start, End: end, PageSize: 100, ApplyAdjustments: true,
	})
	require.NoError(t, err)
	require.Equal(t, reconcile.StatusSuccess, first.Status, first.Reason)
	require.NotEmpty(t, first.Adjustments)
	require.NotNil(t, first.Apply)
	assert.True(t, first.Apply.OK())
	require.NotNil(t, first.Storage)
	assert.Equal(t, model.StorageOK, first.Storage.Status)

	second, err := runner.Run(ctx, reconcile.RunOptions{Start: start, End: end, PageSize: 100})
	require.NoError(t, err)
	assert.Empty(t, second.Adjustments)
	assert.Zero(t, second.Report.Summary.WarningCount)
	assert.Zero(t, second.Report.Summary.CriticalCount)
}

func TestSyncEmptyWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	wh := seededWarehouse(t, start, start)

	_, err := newRunner(wh).Run(context.Background(), reconcile.RunOptions{
		Start: start.AddDate(1, 0, 0), End: start.AddDate(1, 0, 1), PageSize: 100,
	})
	assert.ErrorIs(t, err, reconcile.ErrEmptyDataset)
}

func TestArchiveMovesOldRows(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wh := seededWarehouse(t, start, start.AddDate(0, 0, 2))

	m := storage.NewManager(wh, storage.DefaultOptions())
	plans, err := m.Plan(ctx, 30)
	require.NoError(t, err)

	var inventoryPlan model.ArchivingPlan
	for _, p := range plans {
		require.NoError(t, p.Err)
		if p.Table == tables.FactInventory {
			inventoryPlan = p
		}
	}
	require.Equal(t, int64(10*3*3), inventoryPlan.OldRecordCount)

	report := m.Execute(ctx, plans, storage.AutoConfirm{})
	require.True(t, report.OK())
	for _, r := range report.Results {
		if r.Table == tables.FactInventory {
			assert.Equal(t, storage.TableArchived, r.Status)
			assert.Equal(t, inventoryPlan.OldRecordCount, r.Archived)
			assert.Equal(t, r.Archived, r.Deleted)
		}
	}

	after, err := m.Plan(ctx, 30)
	require.NoError(t, err)
	for _, p := range after {
		assert.Zero(t, p.OldRecordCount, p.Table)
	}

	_, err = wh.Pool().Exec(ctx, "ANALYZE")
	require.NoError(t, err)

	usage := m.Usage(ctx)
	require.NotEqual(t, model.StorageError, usage.Status, usage.Error)
	var found bool
	for _, u := range usage.Tables {
		if u.TableID == tables.FactInventory+"_archive" {
			found = true
			assert.Equal(t, inventoryPlan.OldRecordCount, u.RowCount)
		}
	}
	assert.True(t, found, "archive table is measured")
}

func TestDropSchemaRemovesCustomSuffixArchives(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wh := seededWarehouse(t, start, start.AddDate(0, 0, 2))

	opts := storage.DefaultOptions()
	opts.ArchiveSuffix = "_old"
	m := storage.NewManager(wh, opts)
	plans, err := m.Plan(ctx, 30)
	require.NoError(t, err)
	require.True(t, m.Execute(ctx, plans, storage.AutoConfirm{}).OK())

	var archived *string
	require.NoError(t, wh.Pool().QueryRow(ctx, "SELECT to_regclass('fact_inventory_old')::text").Scan(&archived))
	require.NotNil(t, archived)

	require.NoError(t, wh.DropSchema(ctx, "_old"))

	var remaining int
	require.NoError(t, wh.Pool().QueryRow(ctx, `
        SELECT count(*) FROM pg_tables
        WHERE schemaname = current_schema()
          AND (tablename LIKE 'fact\_%' OR tablename = 'dim_products')`).Scan(&remaining))
	assert.Zero(t, remaining)
}
