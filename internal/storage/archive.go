//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

// errNoProgress stops a table whose delete step removes nothing, which
// would otherwise select the same batch forever.
var errNoProgress = errors.New("delete removed no rows")

// TableStatus is the outcome of archiving one table.
type TableStatus string

// Table outcomes.
const (
	TableArchived TableStatus = "ARCHIVED"
	TableEmpty    TableStatus = "EMPTY"
	TableSkipped  TableStatus = "SKIPPED"
	TableFailed   TableStatus = "FAILED"
)

// TableResult reports what happened to one table. Archived counts rows
// inserted into the archive and Deleted rows removed from the source;
// after a delete failure Archived exceeds Deleted and the difference
// exists in both tables.
type TableResult struct {
	Table        string
	ArchiveTable string
	Status       TableStatus
	Batches      int
	Archived     int64
	Deleted      int64
	Err          error
}

// Confirmer decides per table whether archiving goes ahead.
type Confirmer interface {
	ConfirmTable(plan model.ArchivingPlan) (bool, error)
}

// AutoConfirm approves every table.
type AutoConfirm struct{}

// ConfirmTable implements Confirmer.
func (AutoConfirm) ConfirmTable(model.ArchivingPlan) (bool, error) {
	return true, nil
}

// ExecuteReport collects per-table results.
type ExecuteReport struct {
	Results []TableResult
}

// OK reports whether no table failed.
func (r *ExecuteReport) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the results of tables that failed.
func (r *ExecuteReport) Failed() []TableResult {
	var failed []TableResult
	for _, res := range r.Results {
		if res.Status == TableFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Execute archives every planned table with old rows. A failing table is
// reported and the remaining tables are still processed.
func (m *Manager) Execute(ctx context.Context, plans []model.ArchivingPlan, confirm Confirmer) *ExecuteReport {
	if confirm == nil {
		confirm = AutoConfirm{}
	}

	report := &ExecuteReport{}
	for _, plan := range plans {
		res := m.executeTable(ctx, plan, confirm)

		event := logging.Info()
		if res.Status == TableFailed {
			event = logging.Error().Err(res.Err)
		}
		event.
			Str("table", res.Table).
			Str("status", string(res.Status)).
			Int64("archived", res.Archived).
			Int64("deleted", res.Deleted).
			Msg("Table archiving finished")

		report.Results = append(report.Results, res)
	}
	return report
}

func (m *Manager) executeTable(ctx context.Context, plan model.ArchivingPlan, confirm Confirmer) TableResult {
	res := TableResult{Table: plan.Table, ArchiveTable: plan.ArchiveTable}
	fail := func(err error) TableResult {
		res.Status = TableFailed
		res.Err = err
		return res
	}

	if plan.Err != nil {
		return fail(fmt.Errorf("table was not inspected: %w", plan.Err))
	}
	if plan.OldRecordCount == 0 {
		res.Status = TableEmpty
		return res
	}

	def, err := m.definition(plan.Table)
	if err != nil {
		return fail(err)
	}

	ok, err := confirm.ConfirmTable(plan)
	if err != nil {
		return fail(fmt.Errorf("confirmation failed: %w", err))
	}
	if !ok {
		res.Status = TableSkipped
		return res
	}

	if err := m.store.EnsureArchiveTable(ctx, def, plan.ArchiveTable); err != nil {
		return fail(err)
	}

	logging.Info().
		Str("table", plan.Table).
		Str("archive", plan.ArchiveTable).
		Int64("rows", plan.OldRecordCount).
		Msg("Archiving table")

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		ids, err := m.store.SelectArchiveBatch(ctx, def, plan.CutoffDate, m.opts.BatchSize)
		if err != nil {
			return fail(err)
		}
		if len(ids) == 0 {
			break
		}

		copied, err := m.store.CopyToArchive(ctx, def, plan.ArchiveTable, ids)
		if err != nil {
			return fail(err)
		}
		res.Archived += copied

		deleted, err := m.store.DeleteRows(ctx, def, ids)
		if err != nil {
			logging.Warn().
				Str("table", plan.Table).
				Int("rows", len(ids)).
				Msg("Batch copied but not deleted, rows now exist in both tables")
			return fail(err)
		}
		if deleted == 0 {
			return fail(fmt.Errorf("%s: %w", plan.Table, errNoProgress))
		}
		res.Deleted += deleted
		res.Batches++

		logging.Debug().
			Str("table", plan.Table).
			Int("batch", res.Batches).
			Int64("deleted", deleted).
			Msg("Archived batch")
	}

	res.Status = TableArchived
	return res
}

func (m *Manager) definition(name string) (tables.Definition, error) {
	for _, def := range m.opts.Tables {
		if def.Name == name {
			return def, nil
		}
	}
	return tables.Definition{}, fmt.Errorf("table %s is not archivable", name)
}
