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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		pct  float64
		want model.VarianceLevel
	}{
		{0, model.VarianceAcceptable},
		{4.999, model.VarianceAcceptable},
		{5.0, model.VarianceWarning},
		{14.999, model.VarianceWarning},
		{15.0, model.VarianceCritical},
		{100, model.VarianceCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.pct), "pct=%v", tt.pct)
	}
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{WarningPercent: 0, CriticalPercent: 15}.Validate())
	assert.Error(t, Thresholds{WarningPercent: 15, CriticalPercent: 15}.Validate())
}

func TestAnalyzeCriticalOverstatement(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	sales := []model.SalesRecord{
		sale("S1", "P001", "2024-01-15", 100),
		sale("S2", "P001", "2024-01-15", 50),
	}
	inventory := []model.InventoryRecord{stock("I1", "P001", "2024-01-15", "LOC1", 200)}

	rows := engine.Analyze(sales, inventory, nil)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, int64(150), r.SalesQuantity)
	assert.Equal(t, int64(200), r.StockSold)
	assert.Equal(t, int64(50), r.Variance)
	assert.InDelta(t, 25.0, r.VariancePercentage, 1e-9)
	assert.Equal(t, model.VarianceCritical, r.VarianceLevel)
	assert.Equal(t, 2, r.TransactionCount)

	adjs := Propose(rows, day("2024-01-16"))
	require.Len(t, adjs, 1)
	assert.Equal(t, model.StockSoldDecrease, adjs[0].AdjustmentType)
	assert.Equal(t, int64(50), adjs[0].AdjustmentQuantity)
	assert.Equal(t, int64(200), adjs[0].OriginalStockSold)
	assert.Equal(t, int64(150), adjs[0].AdjustedStockSold)
}

func TestAnalyzeBalancedRow(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	rows := engine.Analyze(
		[]model.SalesRecord{sale("S1", "P002", "2024-01-15", 25)},
		[]model.InventoryRecord{stock("I1", "P002", "2024-01-15", "LOC1", 25)},
		nil,
	)

	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Variance)
	assert.Equal(t, model.VarianceAcceptable, rows[0].VarianceLevel)
	assert.Empty(t, Propose(rows, day("2024-01-16")))
}

func TestAnalyzeSalesWithoutInventory(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	rows := engine.Analyze([]model.SalesRecord{sale("S1", "P003", "2024-01-15", 40)}, nil, nil)

	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].StockSold)
	assert.InDelta(t, 100.0, rows[0].VariancePercentage, 1e-9)
	assert.Equal(t, model.VarianceCritical, rows[0].VarianceLevel)
}

func TestAnalyzeQuantityBoundaries(t *testing.T) {
	engine := NewEngine(DefaultThresholds())

	tests := []struct {
		name  string
		sales int64
		sold  int64
		want  model.VarianceLevel
	}{
		{"just under warning", 1049, 1000, model.VarianceAcceptable},
		{"exactly warning", 105, 100, model.VarianceWarning},
		{"exactly warning below", 95, 100, model.VarianceWarning},
		{"exactly critical", 115, 100, model.VarianceCritical},
		{"exactly critical odd denominator", 17, 20, model.VarianceCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := engine.Analyze(
				[]model.SalesRecord{sale("S1", "P1", "2024-02-01", tt.sales)},
				[]model.InventoryRecord{stock("I1", "P1", "2024-02-01", "LOC1", tt.sold)},
				nil,
			)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].VarianceLevel)
			assert.Equal(t, model.AbsDiff(tt.sales, tt.sold), rows[0].Variance)
		})
	}
}

func TestAnalyzeOuterJoinCompleteness(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	sales := []model.SalesRecord{
		sale("S1", "P1", "2024-01-01", 10),
		sale("S2", "P1", "2024-01-02", 10),
		sale("S3", "P2", "2024-01-01", 5),
	}
	inventory := []model.InventoryRecord{
		stock("I1", "P1", "2024-01-01", "LOC1", 6),
		stock("I2", "P1", "2024-01-01", "LOC2", 4),
		stock("I3", "P3", "2024-01-03", "LOC1", 8),
	}

	rows := engine.Analyze(sales, inventory, nil)

	keys := make(map[model.Key]int)
	for _, r := range rows {
		keys[r.Key()]++
		assert.Equal(t, model.AbsDiff(r.SalesQuantity, r.StockSold), r.Variance)
	}
	assert.Len(t, rows, 4)
	for _, k := range []model.Key{
		{ProductID: "P1", Date: "2024-01-01"},
		{ProductID: "P1", Date: "2024-01-02"},
		{ProductID: "P2", Date: "2024-01-01"},
		{ProductID: "P3", Date: "2024-01-03"},
	} {
		assert.Equal(t, 1, keys[k], "key %v", k)
	}
}

func TestAnalyzeInventoryWithoutSales(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	rows := engine.Analyze(nil, []model.InventoryRecord{stock("I1", "P4", "2024-01-05", "LOC1", 12)}, nil)

	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].SalesQuantity)
	assert.Equal(t, int64(12), rows[0].Variance)
	assert.InDelta(t, 100.0, rows[0].VariancePercentage, 1e-9)
}

func TestAnalyzeSortsDescending(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	sales := []model.SalesRecord{
		sale("S1", "A", "2024-01-01", 100),
		sale("S2", "B", "2024-01-01", 110),
		sale("S3", "C", "2024-01-01", 150),
		sale("S4", "D", "2024-01-01", 150),
	}
	inventory := []model.InventoryRecord{
		stock("I1", "A", "2024-01-01", "L", 100),
		stock("I2", "B", "2024-01-01", "L", 100),
		stock("I3", "C", "2024-01-01", "L", 100),
		stock("I4", "D", "2024-01-01", "L", 100),
	}

	rows := engine.Analyze(sales, inventory, nil)
	require.Len(t, rows, 4)

	var order []string
	for _, r := range rows {
		order = append(order, r.ProductID)
	}
	assert.Equal(t, []string{"C", "D", "B", "A"}, order)
}

func TestAnalyzeJoinsProductMetadata(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	products := []model.Product{{ProductID: "P1", SKU: "SKU-1", ProductName: "Cola 330ml"}}
	rows := engine.Analyze(
		[]model.SalesRecord{sale("S1", "P1", "2024-01-01", 10), sale("S2", "P9", "2024-01-01", 10)},
		nil,
		products,
	)

	require.Len(t, rows, 2)
	bySKU := map[string]model.ReconciliationRow{}
	for _, r := range rows {
		bySKU[r.ProductID] = r
	}
	assert.Equal(t, "SKU-1", bySKU["P1"].SKU())
	assert.Equal(t, "Cola 330ml", bySKU["P1"].ProductName())
	assert.Nil(t, bySKU["P9"].Product)
	assert.Equal(t, int64(10), bySKU["P9"].Variance)
}
