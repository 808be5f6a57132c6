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
	"sort"
	"time"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// Engine computes reconciliation rows.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine classifying with the given thresholds.
func NewEngine(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Thresholds returns the engine's classification thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Analyze groups both streams by product and day, joins them with zero
// defaults on either side and classifies every resulting row. Rows come
// back ordered by variance percentage, highest first.
func (e *Engine) Analyze(sales []model.SalesRecord, inventory []model.InventoryRecord, products []model.Product) []model.ReconciliationRow {
	byKey := make(map[model.Key]*model.ReconciliationRow)
	get := func(productID string, date time.Time) *model.ReconciliationRow {
		key := model.KeyOf(productID, date)
		r, ok := byKey[key]
		if !ok {
			r = &model.ReconciliationRow{ProductID: productID, Date: model.Day(date)}
			byKey[key] = r
		}
		return r
	}

	for _, s := range sales {
		r := get(s.ProductID, s.Date)
		r.SalesQuantity += s.Quantity
		r.TransactionCount++
	}

	for _, inv := range inventory {
		r := get(inv.ProductID, inv.Date)
		r.StockSold += inv.StockSold
		r.OpeningStock += inv.OpeningStock
		r.ClosingStock += inv.ClosingStock
		r.InventoryRows++
	}

	catalog := make(map[string]*model.Product, len(products))
	for i := range products {
		catalog[products[i].ProductID] = &products[i]
	}

	rows := make([]model.ReconciliationRow, 0, len(byKey))
	missing := make(map[string]struct{})
	for _, r := range byKey {
		r.Variance = model.AbsDiff(r.SalesQuantity, r.StockSold)
		r.VariancePercentage = model.VariancePercent(r.SalesQuantity, r.StockSold)
		r.VarianceLevel = e.thresholds.Classify(r.VariancePercentage)
		if p, ok := catalog[r.ProductID]; ok {
			r.Product = p
		} else {
			missing[r.ProductID] = struct{}{}
		}
		rows = append(rows, *r)
	}

	if len(missing) > 0 {
		logging.Warn().
			Int("products", len(missing)).
			Msg("Products missing from dimension, metadata left empty")
	}

	SortRows(rows)

	logging.Debug().
		Int("sales", len(sales)).
		Int("inventory", len(inventory)).
		Int("rows", len(rows)).
		Msg("Reconciliation analysis complete")

	return rows
}

// SortRows orders rows by variance percentage descending, then by date
// and product so equal percentages have a stable order.
func SortRows(rows []model.ReconciliationRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.VariancePercentage != b.VariancePercentage {
			return a.VariancePercentage > b.VariancePercentage
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ProductID < b.ProductID
	})
}
