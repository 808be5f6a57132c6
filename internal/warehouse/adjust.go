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
	"fmt"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// ApplyAdjustment applies one adjustment to the inventory rows of its key
// in a single transaction and returns the number of rows updated.
func (w *Warehouse) ApplyAdjustment(ctx context.Context, adj model.AdjustmentRecord) (int64, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
        SELECT inventory_id, location_id, stock_sold
        FROM fact_inventory
        WHERE product_id = $1 AND inventory_date = $2
        ORDER BY location_id, inventory_id
        FOR UPDATE
    `, adj.ProductID, adj.Date)
	if err != nil {
		return 0, fmt.Errorf("failed to lock inventory rows: %w", err)
	}

	var inventory []model.InventoryRecord
	for rows.Next() {
		var r model.InventoryRecord
		if err := rows.Scan(&r.ID, &r.LocationID, &r.StockSold); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		inventory = append(inventory, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read inventory rows: %w", err)
	}

	changes, err := adj.Allocate(inventory)
	if err != nil {
		return 0, err
	}

	var updated int64
	for _, c := range changes {
		tag, err := tx.Exec(ctx, `
            UPDATE fact_inventory
            SET stock_sold = stock_sold + $1,
                closing_stock = closing_stock - $1,
                updated_at = now()
            WHERE inventory_id = $2
        `, c.StockSoldDelta, c.InventoryID)
		if err != nil {
			return 0, fmt.Errorf("failed to update %s: %w", c.InventoryID, err)
		}
		updated += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit adjustment: %w", err)
	}

	logging.Debug().
		Str("adjustment_id", adj.AdjustmentID).
		Int64("delta", adj.Delta()).
		Int64("rows", updated).
		Msg("Applied adjustment")

	return updated, nil
}
