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
	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// DefaultTopIssues is the number of rows listed as top issues.
const DefaultTopIssues = 10

// Recommendation texts emitted by Build.
const (
	RecommendUrgentReview   = "URGENT: Review critical variance records immediately"
	RecommendAutomation     = "Implement automated reconciliation processes"
	RecommendAuditProcesses = "Review inventory counting procedures and sales recording accuracy"
)

// Summary counts rows per variance level.
type Summary struct {
	TotalRecords       int
	AcceptableCount    int
	WarningCount       int
	CriticalCount      int
	CriticalPercentage float64
	MeanVariancePct    float64
	MaxVariancePct     float64
}

// VolumeStats totals the quantities behind the analysis.
type VolumeStats struct {
	TotalSalesQuantity int64
	TotalStockSold     int64
	TotalVariance      int64
	AffectedProducts   int
	AffectedDates      int
}

// AdjustmentSummary totals the proposed adjustments.
type AdjustmentSummary struct {
	Count         int
	Increases     int
	Decreases     int
	TotalQuantity int64
}

// Report is the reduced view of a reconciliation run.
type Report struct {
	Summary         Summary
	TopIssues       []model.ReconciliationRow
	Recommendations []string
	VolumeStats     VolumeStats
	Adjustments     AdjustmentSummary
}

// Build reduces rows, already in engine order, into a report. topN <= 0
// selects DefaultTopIssues.
func Build(rows []model.ReconciliationRow, topN int) Report {
	if topN <= 0 {
		topN = DefaultTopIssues
	}

	var report Report
	s := &report.Summary
	v := &report.VolumeStats
	s.TotalRecords = len(rows)

	products := make(map[string]struct{})
	dates := make(map[string]struct{})
	var pctSum float64
	for _, r := range rows {
		switch r.VarianceLevel {
		case model.VarianceCritical:
			s.CriticalCount++
		case model.VarianceWarning:
			s.WarningCount++
		default:
			s.AcceptableCount++
		}
		pctSum += r.VariancePercentage
		if r.VariancePercentage > s.MaxVariancePct {
			s.MaxVariancePct = r.VariancePercentage
		}

		v.TotalSalesQuantity += r.SalesQuantity
		v.TotalStockSold += r.StockSold
		v.TotalVariance += r.Variance
		products[r.ProductID] = struct{}{}
		dates[r.Key().Date] = struct{}{}
	}
	v.AffectedProducts = len(products)
	v.AffectedDates = len(dates)

	if s.TotalRecords > 0 {
		s.CriticalPercentage = float64(s.CriticalCount) * 100 / float64(s.TotalRecords)
		s.MeanVariancePct = pctSum / float64(s.TotalRecords)
	}

	report.TopIssues = rows[:min(topN, len(rows))]
	report.Recommendations = recommend(*s)
	return report
}

func recommend(s Summary) []string {
	recs := []string{}
	if s.CriticalCount > 0 {
		recs = append(recs, RecommendUrgentReview)
	}
	if float64(s.WarningCount) > float64(s.TotalRecords)*0.1 {
		recs = append(recs, RecommendAutomation)
	}
	if s.MeanVariancePct > 10 {
		recs = append(recs, RecommendAuditProcesses)
	}
	return recs
}

// SummarizeAdjustments totals proposed adjustments.
func SummarizeAdjustments(adjustments []model.AdjustmentRecord) AdjustmentSummary {
	sum := AdjustmentSummary{Count: len(adjustments)}
	for _, a := range adjustments {
		sum.TotalQuantity += a.AdjustmentQuantity
		if a.AdjustmentType == model.StockSoldIncrease {
			sum.Increases++
		} else {
			sum.Decreases++
		}
	}
	return sum
}
