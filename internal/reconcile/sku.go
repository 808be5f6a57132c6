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

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// SKUTotal reconciles sales and stock sold across a whole window for one
// SKU.
type SKUTotal struct {
	SKU                string
	ProductName        string
	SalesQuantity      int64
	SalesAmount        decimal.Decimal
	StockSold          int64
	OpeningStock       int64
	ClosingStock       int64
	Variance           int64
	VariancePercentage float64
}

// SummarizeSKUs aggregates both streams per SKU. Products missing from the
// dimension are grouped under their product id.
func SummarizeSKUs(sales []model.SalesRecord, inventory []model.InventoryRecord, products []model.Product) []SKUTotal {
	catalog := make(map[string]model.Product, len(products))
	for _, p := range products {
		catalog[p.ProductID] = p
	}

	totals := make(map[string]*SKUTotal)
	get := func(productID string) *SKUTotal {
		sku, name := productID, ""
		if p, ok := catalog[productID]; ok {
			sku, name = p.SKU, p.ProductName
		}
		t, ok := totals[sku]
		if !ok {
			t = &SKUTotal{SKU: sku, ProductName: name, SalesAmount: decimal.Zero}
			totals[sku] = t
		}
		return t
	}

	for _, s := range sales {
		t := get(s.ProductID)
		t.SalesQuantity += s.Quantity
		t.SalesAmount = t.SalesAmount.Add(s.TotalAmount)
	}
	for _, inv := range inventory {
		t := get(inv.ProductID)
		t.StockSold += inv.StockSold
		t.OpeningStock += inv.OpeningStock
		t.ClosingStock += inv.ClosingStock
	}

	result := make([]SKUTotal, 0, len(totals))
	for _, t := range totals {
		t.Variance = model.AbsDiff(t.SalesQuantity, t.StockSold)
		t.VariancePercentage = model.VariancePercent(t.SalesQuantity, t.StockSold)
		result = append(result, *t)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].VariancePercentage != result[j].VariancePercentage {
			return result[i].VariancePercentage > result[j].VariancePercentage
		}
		return result[i].SKU < result[j].SKU
	})
	return result
}
