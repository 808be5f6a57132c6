//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse implements the PostgreSQL side of reconciliation and
// archiving: paged fact reads, adjustment updates, storage metrics and
// batched archive moves.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// Warehouse is a client for the analytical warehouse.
type Warehouse struct {
	pool *pgxpool.Pool
}

// New wraps an open connection pool.
func New(pool *pgxpool.Pool) *Warehouse {
	return &Warehouse{pool: pool}
}

// Pool returns the underlying connection pool.
func (w *Warehouse) Pool() *pgxpool.Pool {
	return w.pool
}

const salesPageSQL = `
    SELECT sale_id, sale_date, product_id, retailer_id, quantity,
           unit_price, total_amount, delivery_status
    FROM fact_sales
    WHERE sale_date BETWEEN $1 AND $2
      AND delivery_status <> 'Cancelled'
    ORDER BY sale_date, product_id, retailer_id, sale_id
    LIMIT $3 OFFSET $4
`

// SalesPage returns one page of non-cancelled sales dated within the
// window.
func (w *Warehouse) SalesPage(ctx context.Context, start, end time.Time, limit, offset int) ([]model.SalesRecord, error) {
	logging.Debug().
		Str("table", "fact_sales").
		Int("limit", limit).
		Int("offset", offset).
		Msg("Fetching page")

	rows, err := w.pool.Query(ctx, salesPageSQL, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query fact_sales: %w", err)
	}
	defer rows.Close()

	var page []model.SalesRecord
	for rows.Next() {
		var r model.SalesRecord
		if err := rows.Scan(&r.ID, &r.Date, &r.ProductID, &r.RetailerID, &r.Quantity,
			&r.UnitPrice, &r.TotalAmount, &r.DeliveryStatus); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		page = append(page, r)
	}
	return page, rows.Err()
}

const inventoryPageSQL = `
    SELECT inventory_id, inventory_date, product_id, location_id,
           opening_stock, closing_stock, stock_received, stock_sold, stock_lost,
           unit_cost, total_value
    FROM fact_inventory
    WHERE inventory_date BETWEEN $1 AND $2
    ORDER BY inventory_date, product_id, location_id, inventory_id
    LIMIT $3 OFFSET $4
`

// InventoryPage returns one page of inventory snapshots dated within the
// window.
func (w *Warehouse) InventoryPage(ctx context.Context, start, end time.Time, limit, offset int) ([]model.InventoryRecord, error) {
	logging.Debug().
		Str("table", "fact_inventory").
		Int("limit", limit).
		Int("offset", offset).
		Msg("Fetching page")

	rows, err := w.pool.Query(ctx, inventoryPageSQL, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query fact_inventory: %w", err)
	}
	defer rows.Close()

	var page []model.InventoryRecord
	for rows.Next() {
		var r model.InventoryRecord
		if err := rows.Scan(&r.ID, &r.Date, &r.ProductID, &r.LocationID,
			&r.OpeningStock, &r.ClosingStock, &r.StockReceived, &r.StockSold, &r.StockLost,
			&r.UnitCost, &r.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		page = append(page, r)
	}
	return page, rows.Err()
}

// Products returns the product dimension.
func (w *Warehouse) Products(ctx context.Context) ([]model.Product, error) {
	rows, err := w.pool.Query(ctx, `
        SELECT product_id, sku, product_name, category, brand, unit_price
        FROM dim_products
        ORDER BY product_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query dim_products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
		var p model.Product
		err := row.Scan(&p.ProductID, &p.SKU, &p.ProductName, &p.Category, &p.Brand, &p.UnitPrice)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	logging.Debug().Int("products", len(products)).Msg("Loaded product dimension")
	return products, nil
}
