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
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sale(id, product, date string, qty int64) model.SalesRecord {
	return model.SalesRecord{
		ID:             id,
		Date:           day(date),
		ProductID:      product,
		RetailerID:     "RET000000000000001",
		Quantity:       qty,
		UnitPrice:      decimal.NewFromInt(2),
		TotalAmount:    decimal.NewFromInt(2 * qty),
		DeliveryStatus: model.DeliveryDelivered,
	}
}

func stock(id, product, date, location string, sold int64) model.InventoryRecord {
	return model.InventoryRecord{
		ID:           id,
		Date:         day(date),
		ProductID:    product,
		LocationID:   location,
		OpeningStock: 1000,
		ClosingStock: 1000 - sold,
		StockSold:    sold,
	}
}

// memorySource is an in-memory warehouse with LIMIT/OFFSET paging and
// per-adjustment failure injection.
type memorySource struct {
	sales       []model.SalesRecord
	inventory   []model.InventoryRecord
	products    []model.Product
	salesErr    error
	productsErr error
	applyErr    map[string]error
	calls       int
}

func (m *memorySource) SalesPage(ctx context.Context, start, end time.Time, limit, offset int) ([]model.SalesRecord, error) {
	m.calls++
	if m.salesErr != nil {
		return nil, m.salesErr
	}
	return page(m.sales, limit, offset), nil
}

func (m *memorySource) InventoryPage(ctx context.Context, start, end time.Time, limit, offset int) ([]model.InventoryRecord, error) {
	m.calls++
	return page(m.inventory, limit, offset), nil
}

func (m *memorySource) Products(ctx context.Context) ([]model.Product, error) {
	m.calls++
	return m.products, m.productsErr
}

func (m *memorySource) ApplyAdjustment(ctx context.Context, adj model.AdjustmentRecord) (int64, error) {
	m.calls++
	if err := m.applyErr[adj.AdjustmentID]; err != nil {
		return 0, err
	}

	var rows []model.InventoryRecord
	var idx []int
	for i, inv := range m.inventory {
		if inv.ProductID == adj.ProductID && inv.Date.Equal(adj.Date) {
			rows = append(rows, inv)
			idx = append(idx, i)
		}
	}
	changes, err := adj.Allocate(rows)
	if err != nil {
		return 0, err
	}
	for _, c := range changes {
		for _, i := range idx {
			if m.inventory[i].ID == c.InventoryID {
				m.inventory[i].StockSold += c.StockSoldDelta
				m.inventory[i].ClosingStock -= c.StockSoldDelta
			}
		}
	}
	return int64(len(changes)), nil
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	return rows[offset:min(offset+limit, len(rows))]
}

type fixedGate struct {
	snapshot model.StorageUsageSnapshot
}

func (g fixedGate) Usage(ctx context.Context) model.StorageUsageSnapshot {
	return g.snapshot
}

var errWarehouseDown = errors.New("warehouse unavailable")
