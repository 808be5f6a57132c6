//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

// InsertProducts bulk loads product dimension rows.
func (w *Warehouse) InsertProducts(ctx context.Context, products []model.Product) (int64, error) {
	return w.copyRows(ctx, tables.DimProducts,
		[]string{"product_id", "sku", "product_name", "category", "brand", "unit_price"},
		len(products), func(i int) []any {
			p := products[i]
			return []any{p.ProductID, p.SKU, p.ProductName, p.Category, p.Brand, p.UnitPrice}
		})
}

// InsertSales bulk loads sales transactions.
func (w *Warehouse) InsertSales(ctx context.Context, sales []model.SalesRecord) (int64, error) {
	return w.copyRows(ctx, tables.FactSales,
		[]string{"sale_id", "sale_date", "product_id", "retailer_id", "quantity",
			"unit_price", "total_amount", "delivery_status"},
		len(sales), func(i int) []any {
			s := sales[i]
			return []any{s.ID, s.Date, s.ProductID, s.RetailerID, s.Quantity,
				s.UnitPrice, s.TotalAmount, s.DeliveryStatus}
		})
}

// InsertInventory bulk loads inventory snapshots.
func (w *Warehouse) InsertInventory(ctx context.Context, inventory []model.InventoryRecord) (int64, error) {
	return w.copyRows(ctx, tables.FactInventory,
		[]string{"inventory_id", "inventory_date", "product_id", "location_id",
			"opening_stock", "closing_stock", "stock_received", "stock_sold", "stock_lost",
			"unit_cost", "total_value"},
		len(inventory), func(i int) []any {
			r := inventory[i]
			return []any{r.ID, r.Date, r.ProductID, r.LocationID,
				r.OpeningStock, r.ClosingStock, r.StockReceived, r.StockSold, r.StockLost,
				r.UnitCost, r.TotalValue}
		})
}

// InsertOperatingCosts bulk loads operating cost rows.
func (w *Warehouse) InsertOperatingCosts(ctx context.Context, costs []model.OperatingCostRecord) (int64, error) {
	return w.copyRows(ctx, tables.FactOperatingCosts,
		[]string{"cost_id", "cost_date", "category", "amount"},
		len(costs), func(i int) []any {
			c := costs[i]
			return []any{c.ID, c.Date, c.Category, c.Amount}
		})
}

// InsertMarketingCosts bulk loads marketing cost rows.
func (w *Warehouse) InsertMarketingCosts(ctx context.Context, costs []model.MarketingCostRecord) (int64, error) {
	return w.copyRows(ctx, tables.FactMarketingCosts,
		[]string{"cost_id", "cost_date", "campaign_id", "channel", "amount"},
		len(costs), func(i int) []any {
			c := costs[i]
			return []any{c.ID, c.Date, c.CampaignID, c.Channel, c.Amount}
		})
}

func (w *Warehouse) copyRows(ctx context.Context, table string, columns []string, n int, row func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	count, err := w.pool.CopyFrom(ctx, pgx.Identifier{table}, columns,
		pgx.CopyFromSlice(n, func(i int) ([]any, error) {
			return row(i), nil
		}))
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", table, err)
	}
	return count, nil
}

// MaxID returns the highest identifier stored in a table's id column, or
// an empty string when the table is empty.
func (w *Warehouse) MaxID(ctx context.Context, table, idColumn string) (string, error) {
	sql := fmt.Sprintf("SELECT max(%s) FROM %s",
		pgx.Identifier{idColumn}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
	)
	var id *string
	if err := w.pool.QueryRow(ctx, sql).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read high-water mark of %s: %w", table, err)
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}
