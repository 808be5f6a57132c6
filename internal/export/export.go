//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package export writes reconciliation results to an xlsx workbook.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/reconcile"
)

// Sheet names of the workbook.
const (
	SheetSummary     = "Summary"
	SheetVariance    = "Variance"
	SheetAdjustments = "Adjustments"
	SheetSKUs        = "SKU Summary"
)

var (
	varianceHeadings = []any{"Product ID", "SKU", "Product Name", "Date", "Sales Quantity",
		"Stock Sold", "Variance", "Variance %", "Level", "Transactions", "Inventory Rows"}
	adjustmentHeadings = []any{"Adjustment ID", "Product ID", "Date", "Type", "Quantity",
		"Original Stock Sold", "Adjusted Stock Sold", "Variance %", "Reason", "Applied"}
	skuHeadings = []any{"SKU", "Product Name", "Sales Quantity", "Sales Amount", "Stock Sold",
		"Opening Stock", "Closing Stock", "Variance", "Variance %"}
)

// WriteWorkbook saves result to filename. The SKU Summary sheet is written
// only when the run produced SKU totals.
func WriteWorkbook(result *reconcile.RunResult, filename string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := writeSummary(f, result); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", SheetSummary, err)
	}

	variance := make([][]any, 0, len(result.Rows))
	for _, r := range result.Rows {
		variance = append(variance, []any{r.ProductID, r.SKU(), r.ProductName(),
			r.Date.Format(model.DateLayout), r.SalesQuantity, r.StockSold, r.Variance,
			r.VariancePercentage, string(r.VarianceLevel), r.TransactionCount, r.InventoryRows})
	}
	if err := writeTable(f, SheetVariance, varianceHeadings, variance); err != nil {
		return err
	}

	applied := appliedIDs(result.Apply)
	adjustments := make([][]any, 0, len(result.Adjustments))
	for _, a := range result.Adjustments {
		adjustments = append(adjustments, []any{a.AdjustmentID, a.ProductID,
			a.Date.Format(model.DateLayout), string(a.AdjustmentType), a.AdjustmentQuantity,
			a.OriginalStockSold, a.AdjustedStockSold, a.VariancePercentage, a.Reason,
			applied[a.AdjustmentID]})
	}
	if err := writeTable(f, SheetAdjustments, adjustmentHeadings, adjustments); err != nil {
		return err
	}

	if len(result.SKUs) > 0 {
		skus := make([][]any, 0, len(result.SKUs))
		for _, s := range result.SKUs {
			skus = append(skus, []any{s.SKU, s.ProductName, s.SalesQuantity,
				s.SalesAmount.InexactFloat64(), s.StockSold, s.OpeningStock, s.ClosingStock,
				s.Variance, s.VariancePercentage})
		}
		if err := writeTable(f, SheetSKUs, skuHeadings, skus); err != nil {
			return err
		}
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", filename, err)
	}
	logging.Info().
		Str("file", filename).
		Int("rows", len(result.Rows)).
		Int("adjustments", len(result.Adjustments)).
		Msg("Exported reconciliation workbook")
	return nil
}

func writeSummary(f *excelize.File, result *reconcile.RunResult) error {
	s := result.Report.Summary
	v := result.Report.VolumeStats
	pairs := [][]any{
		{"Run ID", result.RunID},
		{"Status", string(result.Status)},
		{"Reason", result.Reason},
		{"Start Date", result.Start.Format(model.DateLayout)},
		{"End Date", result.End.Format(model.DateLayout)},
		{"Total Records", s.TotalRecords},
		{"Acceptable", s.AcceptableCount},
		{"Warning", s.WarningCount},
		{"Critical", s.CriticalCount},
		{"Critical %", s.CriticalPercentage},
		{"Mean Variance %", s.MeanVariancePct},
		{"Max Variance %", s.MaxVariancePct},
		{"Total Sales Quantity", v.TotalSalesQuantity},
		{"Total Stock Sold", v.TotalStockSold},
		{"Affected Products", v.AffectedProducts},
		{"Affected Dates", v.AffectedDates},
		{"Proposed Adjustments", result.Report.Adjustments.Count},
	}
	if result.Truncated {
		pairs = append(pairs, []any{"Truncated", true})
	}
	for _, rec := range result.Report.Recommendations {
		pairs = append(pairs, []any{"Recommendation", rec})
	}
	return setRows(f, SheetSummary, pairs)
}

func writeTable(f *excelize.File, sheet string, headings []any, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", sheet, err)
	}
	if err := setRows(f, sheet, append([][]any{headings}, rows...)); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", sheet, err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func appliedIDs(report *reconcile.ApplyReport) map[string]bool {
	applied := make(map[string]bool)
	if report == nil {
		return applied
	}
	for _, r := range report.Results {
		if r.Err == nil {
			applied[r.AdjustmentID] = true
		}
	}
	return applied
}
