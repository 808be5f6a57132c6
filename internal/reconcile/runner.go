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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-reconcile/internal/loader"
	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/retry"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

var (
	// ErrInvalidInput is returned for runs that cannot start.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDataset is returned when neither stream has rows in the
	// window.
	ErrEmptyDataset = fmt.Errorf("%w: no sales or inventory rows in window", ErrInvalidInput)
)

// RunStatus is the overall outcome of a run.
type RunStatus string

// Run statuses.
const (
	StatusSuccess RunStatus = "SUCCESS"
	StatusFailed  RunStatus = "FAILED"
)

// ReasonStorageQuota is the failure reason of runs refused by the storage
// gate.
const ReasonStorageQuota = "storage quota exceeded"

// Source reads the warehouse streams and applies adjustments.
type Source interface {
	AdjustmentStore
	SalesPage(ctx context.Context, start, end time.Time, limit, offset int) ([]model.SalesRecord, error)
	InventoryPage(ctx context.Context, start, end time.Time, limit, offset int) ([]model.InventoryRecord, error)
	Products(ctx context.Context) ([]model.Product, error)
}

// StorageGate reports warehouse storage status before a run.
type StorageGate interface {
	Usage(ctx context.Context) model.StorageUsageSnapshot
}

// ConfirmFunc is asked before adjustments are applied.
type ConfirmFunc func(adjustments []model.AdjustmentRecord) (bool, error)

// RunOptions configures one synchronization run.
type RunOptions struct {
	Start            time.Time
	End              time.Time
	PageSize         int
	Historical       bool
	ApplyAdjustments bool
	SKUSummary       bool

	// Confirm, when set, gates applying adjustments.
	Confirm ConfirmFunc
}

// RunResult is the structured outcome of a run.
type RunResult struct {
	RunID         string
	Status        RunStatus
	Reason        string
	Start         time.Time
	End           time.Time
	Storage       *model.StorageUsageSnapshot
	SalesRows     int
	InventoryRows int
	Truncated     bool
	Rows          []model.ReconciliationRow
	Report        Report
	Adjustments   []model.AdjustmentRecord
	Apply         *ApplyReport
	SKUs          []SKUTotal
	StartedAt     time.Time
	Duration      time.Duration
}

// Runner sequences a synchronization run: storage gate, load, analyze,
// report, propose and optionally apply.
type Runner struct {
	source Source
	gate   StorageGate
	loader *loader.Loader
	engine *Engine
	topN   int
	now    func() time.Time
}

// NewRunner creates a runner. gate may be nil to skip the storage check.
func NewRunner(source Source, gate StorageGate, l *loader.Loader, engine *Engine, topN int) *Runner {
	return &Runner{
		source: source,
		gate:   gate,
		loader: l,
		engine: engine,
		topN:   topN,
		now:    time.Now,
	}
}

// Run executes one synchronization run. Invalid input is returned as an
// error; every other failure is reported through the result status.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	salesReq := loader.Request{
		Table:      tables.FactSales,
		Start:      opts.Start,
		End:        opts.End,
		PageSize:   opts.PageSize,
		Historical: opts.Historical,
	}
	if err := salesReq.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	invReq := salesReq
	invReq.Table = tables.FactInventory

	started := r.now()
	res := &RunResult{
		RunID:     uuid.NewString(),
		Status:    StatusSuccess,
		Start:     model.Day(opts.Start),
		End:       model.Day(opts.End),
		StartedAt: started,
	}
	log := logging.ForRun(res.RunID)
	defer func() { res.Duration = r.now().Sub(started) }()

	log.Info().
		Str("start", res.Start.Format(model.DateLayout)).
		Str("end", res.End.Format(model.DateLayout)).
		Bool("historical", opts.Historical).
		Msg("Starting synchronization run")

	if r.gate != nil {
		usage := r.gate.Usage(ctx)
		res.Storage = &usage
		switch usage.Status {
		case model.StorageCritical:
			log.Error().
				Float64("usage_percent", usage.UsagePercentage).
				Msg("Storage critical, synchronization refused")
			return res.fail(ReasonStorageQuota), nil
		case model.StorageError:
			log.Warn().
				Str("error", usage.Error).
				Msg("Storage status unknown, continuing")
		}
	}

	sales, err := loader.Load(ctx, r.loader, salesReq, r.source.SalesPage)
	if err != nil {
		return res.fail(fmt.Sprintf("failed to load sales: %v", err)), nil
	}
	inventory, err := loader.Load(ctx, r.loader, invReq, r.source.InventoryPage)
	if err != nil {
		return res.fail(fmt.Sprintf("failed to load inventory: %v", err)), nil
	}
	res.SalesRows = len(sales.Rows)
	res.InventoryRows = len(inventory.Rows)
	res.Truncated = sales.Truncated || inventory.Truncated

	if res.SalesRows == 0 && res.InventoryRows == 0 {
		return nil, ErrEmptyDataset
	}

	var products []model.Product
	err = retry.Do(ctx, r.loader.Options().Policy, "load "+tables.DimProducts, func(ctx context.Context) error {
		var err error
		products, err = r.source.Products(ctx)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Msg("Product dimension unavailable, continuing without metadata")
	}

	res.Rows = r.engine.Analyze(sales.Rows, inventory.Rows, products)
	res.Report = Build(res.Rows, r.topN)
	res.Adjustments = Propose(res.Rows, started)
	res.Report.Adjustments = SummarizeAdjustments(res.Adjustments)
	if opts.SKUSummary {
		res.SKUs = SummarizeSKUs(sales.Rows, inventory.Rows, products)
	}

	log.Info().
		Int("rows", res.Report.Summary.TotalRecords).
		Int("critical", res.Report.Summary.CriticalCount).
		Int("warning", res.Report.Summary.WarningCount).
		Int("adjustments", len(res.Adjustments)).
		Msg("Reconciliation complete")

	if opts.ApplyAdjustments && len(res.Adjustments) > 0 {
		apply := true
		if opts.Confirm != nil {
			apply, err = opts.Confirm(res.Adjustments)
			if err != nil {
				return res.fail(fmt.Sprintf("confirmation failed: %v", err)), nil
			}
		}
		if !apply {
			log.Info().Msg("Adjustments not applied")
			return res, nil
		}

		res.Apply = Apply(ctx, r.source, res.Adjustments)
		if !res.Apply.OK() {
			return res.fail(fmt.Sprintf("%d of %d adjustments failed",
				len(res.Apply.Failed()), len(res.Apply.Results))), nil
		}
	}

	return res, nil
}

func (res *RunResult) fail(reason string) *RunResult {
	res.Status = StatusFailed
	res.Reason = reason
	return res
}
