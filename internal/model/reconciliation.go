//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package model

import "time"

// VarianceLevel classifies the severity of a reconciliation variance.
type VarianceLevel string

// Variance levels, from least to most severe.
const (
	VarianceAcceptable VarianceLevel = "ACCEPTABLE"
	VarianceWarning    VarianceLevel = "WARNING"
	VarianceCritical   VarianceLevel = "CRITICAL"
)

// Key identifies a reconciliation unit.
type Key struct {
	ProductID string
	Date      string
}

// KeyOf builds the key for a product on a given day.
func KeyOf(productID string, date time.Time) Key {
	return Key{ProductID: productID, Date: date.Format(DateLayout)}
}

// ReconciliationRow compares summed sales against summed stock sold for
// one product on one day.
type ReconciliationRow struct {
	ProductID          string
	Date               time.Time
	SalesQuantity      int64
	StockSold          int64
	Variance           int64
	VariancePercentage float64
	VarianceLevel      VarianceLevel
	TransactionCount   int
	InventoryRows      int
	OpeningStock       int64
	ClosingStock       int64

	// Product is nil when the product dimension has no matching row.
	Product *Product
}

// Key returns the row's reconciliation key.
func (r ReconciliationRow) Key() Key {
	return KeyOf(r.ProductID, r.Date)
}

// SKU returns the joined SKU, or an empty string when unmatched.
func (r ReconciliationRow) SKU() string {
	if r.Product == nil {
		return ""
	}
	return r.Product.SKU
}

// ProductName returns the joined product name, or an empty string when
// unmatched.
func (r ReconciliationRow) ProductName() string {
	if r.Product == nil {
		return ""
	}
	return r.Product.ProductName
}

// VariancePercent computes the variance percentage of sales against stock
// sold. Stock sold is the denominator whenever it is non-zero; otherwise
// the result is 100 when anything was sold and 0 when nothing moved.
func VariancePercent(salesQuantity, stockSold int64) float64 {
	variance := AbsDiff(salesQuantity, stockSold)
	switch {
	case stockSold != 0:
		return float64(variance) * 100 / float64(stockSold)
	case salesQuantity > 0:
		return 100
	default:
		return 0
	}
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
