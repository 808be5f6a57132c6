//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package model

import (
	"errors"
	"fmt"
	"time"
)

// AdjustmentType is the direction of a stock-sold correction.
type AdjustmentType string

// Adjustment directions.
const (
	StockSoldIncrease AdjustmentType = "STOCK_SOLD_INCREASE"
	StockSoldDecrease AdjustmentType = "STOCK_SOLD_DECREASE"
)

// AdjustmentReason is recorded on every generated adjustment.
const AdjustmentReason = "Sales-Inventory Synchronization"

var (
	// ErrNoInventoryRows is returned when an adjustment has no inventory
	// rows to land on.
	ErrNoInventoryRows = errors.New("no inventory rows for adjustment")

	// ErrInsufficientStockSold is returned when a decrease is larger than
	// the stock sold recorded across the matching rows.
	ErrInsufficientStockSold = errors.New("stock sold too small for decrease")
)

// AdjustmentRecord is a proposed correction of inventory stock sold for
// one product on one day.
type AdjustmentRecord struct {
	AdjustmentID       string
	ProductID          string
	Date               time.Time
	AdjustmentType     AdjustmentType
	AdjustmentQuantity int64
	OriginalStockSold  int64
	AdjustedStockSold  int64
	VariancePercentage float64
	Reason             string
	CreatedAt          time.Time
}

// AdjustmentID derives the identifier of the adjustment for a product on
// a given day.
func AdjustmentID(productID string, date time.Time) string {
	return fmt.Sprintf("INV_ADJ_%s_%s", productID, date.Format("20060102"))
}

// Delta returns the signed change applied to stock sold.
func (a AdjustmentRecord) Delta() int64 {
	if a.AdjustmentType == StockSoldDecrease {
		return -a.AdjustmentQuantity
	}
	return a.AdjustmentQuantity
}

// RowChange is the portion of an adjustment applied to one inventory row.
// Closing stock moves by the inverse of StockSoldDelta.
type RowChange struct {
	InventoryID    string
	StockSoldDelta int64
}

// Allocate spreads the adjustment over the inventory rows of its key.
// Increases land on the first row. Decreases consume rows in order and
// never take a row's stock sold below zero.
func (a AdjustmentRecord) Allocate(rows []InventoryRecord) ([]RowChange, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", a.AdjustmentID, ErrNoInventoryRows)
	}

	delta := a.Delta()
	if delta >= 0 {
		return []RowChange{{InventoryID: rows[0].ID, StockSoldDelta: delta}}, nil
	}

	remaining := -delta
	var changes []RowChange
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		take := min(row.StockSold, remaining)
		if take <= 0 {
			continue
		}
		changes = append(changes, RowChange{InventoryID: row.ID, StockSoldDelta: -take})
		remaining -= take
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%s: short by %d: %w", a.AdjustmentID, remaining, ErrInsufficientStockSold)
	}
	return changes, nil
}
