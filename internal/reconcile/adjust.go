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
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// Propose builds one adjustment per WARNING or CRITICAL row, moving stock
// sold onto the recorded sales quantity. Identifiers depend only on the
// product and date, so repeated proposals for the same rows share ids.
func Propose(rows []model.ReconciliationRow, now time.Time) []model.AdjustmentRecord {
	var adjustments []model.AdjustmentRecord
	for _, r := range rows {
		if r.VarianceLevel != model.VarianceWarning && r.VarianceLevel != model.VarianceCritical {
			continue
		}

		var kind model.AdjustmentType
		switch {
		case r.SalesQuantity > r.StockSold:
			kind = model.StockSoldIncrease
		case r.StockSold > r.SalesQuantity:
			kind = model.StockSoldDecrease
		default:
			continue
		}

		adjustments = append(adjustments, model.AdjustmentRecord{
			AdjustmentID:       model.AdjustmentID(r.ProductID, r.Date),
			ProductID:          r.ProductID,
			Date:               r.Date,
			AdjustmentType:     kind,
			AdjustmentQuantity: model.AbsDiff(r.SalesQuantity, r.StockSold),
			OriginalStockSold:  r.StockSold,
			AdjustedStockSold:  r.SalesQuantity,
			VariancePercentage: r.VariancePercentage,
			Reason:             model.AdjustmentReason,
			CreatedAt:          now,
		})
	}
	return adjustments
}

// AdjustmentStore applies a single adjustment atomically.
type AdjustmentStore interface {
	ApplyAdjustment(ctx context.Context, adj model.AdjustmentRecord) (int64, error)
}

// ApplyResult is the outcome of applying one adjustment.
type ApplyResult struct {
	AdjustmentID string
	RowsUpdated  int64
	Err          error
}

// ApplyReport collects per-adjustment outcomes.
type ApplyReport struct {
	Results []ApplyResult
}

// OK reports whether every adjustment was applied.
func (r *ApplyReport) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the results of adjustments that were not applied.
func (r *ApplyReport) Failed() []ApplyResult {
	var failed []ApplyResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Applied returns the number of adjustments that were applied.
func (r *ApplyReport) Applied() int {
	return len(r.Results) - len(r.Failed())
}

// Apply applies adjustments one by one. A failed adjustment is logged and
// skipped; adjustments already applied are kept.
func Apply(ctx context.Context, store AdjustmentStore, adjustments []model.AdjustmentRecord) *ApplyReport {
	report := &ApplyReport{Results: make([]ApplyResult, 0, len(adjustments))}
	if len(adjustments) == 0 {
		logging.Info().Msg("No inventory adjustments to apply")
		return report
	}

	logging.Info().Int("adjustments", len(adjustments)).Msg("Applying inventory adjustments")

	for _, adj := range adjustments {
		res := ApplyResult{AdjustmentID: adj.AdjustmentID}
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("not applied: %w", err)
			report.Results = append(report.Results, res)
			continue
		}

		res.RowsUpdated, res.Err = store.ApplyAdjustment(ctx, adj)
		if res.Err != nil {
			logging.Error().
				Err(res.Err).
				Str("adjustment_id", adj.AdjustmentID).
				Str("product_id", adj.ProductID).
				Msg("Failed to apply adjustment")
		}
		report.Results = append(report.Results, res)
	}

	failed := len(report.Failed())
	event := logging.Info()
	if failed > 0 {
		event = logging.Warn()
	}
	event.
		Int("applied", report.Applied()).
		Int("failed", failed).
		Msg("Inventory adjustments processed")

	return report
}
