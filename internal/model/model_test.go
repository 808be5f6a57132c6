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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariancePercent(t *testing.T) {
	tests := []struct {
		name      string
		sales     int64
		stockSold int64
		want      float64
	}{
		{"stock sold is denominator", 150, 200, 25},
		{"sales above stock sold", 120, 100, 20},
		{"equal quantities", 25, 25, 0},
		{"no inventory movement", 40, 0, 100},
		{"nothing moved", 0, 0, 0},
		{"inventory without sales", 0, 10, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VariancePercent(tt.sales, tt.stockSold), 1e-9)
		})
	}
}

func TestAdjustmentID(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "INV_ADJ_P001_20240115", AdjustmentID("P001", date))
}

func TestAdjustmentDelta(t *testing.T) {
	inc := AdjustmentRecord{AdjustmentType: StockSoldIncrease, AdjustmentQuantity: 7}
	dec := AdjustmentRecord{AdjustmentType: StockSoldDecrease, AdjustmentQuantity: 7}

	assert.Equal(t, int64(7), inc.Delta())
	assert.Equal(t, int64(-7), dec.Delta())
}

func TestAllocateIncreaseLandsOnFirstRow(t *testing.T) {
	adj := AdjustmentRecord{AdjustmentID: "a", AdjustmentType: StockSoldIncrease, AdjustmentQuantity: 30}
	rows := []InventoryRecord{{ID: "INV1", StockSold: 10}, {ID: "INV2", StockSold: 5}}

	changes, err := adj.Allocate(rows)
	require.NoError(t, err)
	assert.Equal(t, []RowChange{{InventoryID: "INV1", StockSoldDelta: 30}}, changes)
}

func TestAllocateDecreaseSpansRows(t *testing.T) {
	adj := AdjustmentRecord{AdjustmentID: "a", AdjustmentType: StockSoldDecrease, AdjustmentQuantity: 50}
	rows := []InventoryRecord{
		{ID: "INV1", StockSold: 0},
		{ID: "INV2", StockSold: 40},
		{ID: "INV3", StockSold: 30},
	}

	changes, err := adj.Allocate(rows)
	require.NoError(t, err)
	assert.Equal(t, []RowChange{
		{InventoryID: "INV2", StockSoldDelta: -40},
		{InventoryID: "INV3", StockSoldDelta: -10},
	}, changes)
}

func TestAllocateErrors(t *testing.T) {
	dec := AdjustmentRecord{AdjustmentID: "a", AdjustmentType: StockSoldDecrease, AdjustmentQuantity: 50}

	_, err := dec.Allocate(nil)
	assert.ErrorIs(t, err, ErrNoInventoryRows)

	_, err = dec.Allocate([]InventoryRecord{{ID: "INV1", StockSold: 20}})
	assert.ErrorIs(t, err, ErrInsufficientStockSold)
}

func TestRowAccessorsWithoutProduct(t *testing.T) {
	row := ReconciliationRow{ProductID: "P9", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	assert.Empty(t, row.SKU())
	assert.Empty(t, row.ProductName())
	assert.Equal(t, Key{ProductID: "P9", Date: "2024-03-01"}, row.Key())
}
