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

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

// createSchemaSQL creates the product dimension and the managed fact
// tables.
const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS dim_products (
    product_id    VARCHAR(20) PRIMARY KEY,
    sku           VARCHAR(32) NOT NULL UNIQUE,
    product_name  VARCHAR(120) NOT NULL,
    category      VARCHAR(60) NOT NULL,
    brand         VARCHAR(60) NOT NULL,
    unit_price    NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS fact_sales (
    sale_id          VARCHAR(20) PRIMARY KEY,
    sale_date        DATE NOT NULL,
    product_id       VARCHAR(20) NOT NULL,
    retailer_id      VARCHAR(20) NOT NULL,
    quantity         BIGINT NOT NULL CHECK (quantity >= 0),
    unit_price       NUMERIC(12,2) NOT NULL,
    total_amount     NUMERIC(14,2) NOT NULL,
    delivery_status  VARCHAR(20) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_sales_date
    ON fact_sales (sale_date, product_id, retailer_id);

CREATE TABLE IF NOT EXISTS fact_inventory (
    inventory_id    VARCHAR(20) PRIMARY KEY,
    inventory_date  DATE NOT NULL,
    product_id      VARCHAR(20) NOT NULL,
    location_id     VARCHAR(20) NOT NULL,
    opening_stock   BIGINT NOT NULL,
    closing_stock   BIGINT NOT NULL,
    stock_received  BIGINT NOT NULL,
    stock_sold      BIGINT NOT NULL,
    stock_lost      BIGINT NOT NULL,
    unit_cost       NUMERIC(12,2) NOT NULL,
    total_value     NUMERIC(14,2) NOT NULL,
    updated_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_fact_inventory_date
    ON fact_inventory (inventory_date, product_id, location_id);

CREATE TABLE IF NOT EXISTS fact_operating_costs (
    cost_id    VARCHAR(20) PRIMARY KEY,
    cost_date  DATE NOT NULL,
    category   VARCHAR(60) NOT NULL,
    amount     NUMERIC(14,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_operating_costs_date
    ON fact_operating_costs (cost_date);

CREATE TABLE IF NOT EXISTS fact_marketing_costs (
    cost_id      VARCHAR(20) PRIMARY KEY,
    cost_date    DATE NOT NULL,
    campaign_id  VARCHAR(20) NOT NULL,
    channel      VARCHAR(40) NOT NULL,
    amount       NUMERIC(14,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_marketing_costs_date
    ON fact_marketing_costs (cost_date);
`

// dropSchemaStatements drops the managed tables and their archives.
func dropSchemaStatements(archiveSuffix string) []string {
	var names []string
	if archiveSuffix != "" {
		for _, def := range tables.All() {
			names = append(names, def.ArchiveName(archiveSuffix))
		}
	}
	for _, def := range tables.All() {
		names = append(names, def.Name)
	}
	names = append(names, tables.DimProducts)

	stmts := make([]string, 0, len(names))
	for _, name := range names {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{name}.Sanitize()))
	}
	return stmts
}

// CreateSchema creates the warehouse tables if they do not exist.
func (w *Warehouse) CreateSchema(ctx context.Context) error {
	logging.Debug().Msg("Creating warehouse schema")
	if _, err := w.pool.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DropSchema drops the warehouse tables and the archive tables named with
// archiveSuffix.
func (w *Warehouse) DropSchema(ctx context.Context, archiveSuffix string) error {
	logging.Debug().Str("archive_suffix", archiveSuffix).Msg("Dropping warehouse schema")
	return pgx.BeginFunc(ctx, w.pool, func(tx pgx.Tx) error {
		for _, stmt := range dropSchemaStatements(archiveSuffix) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to drop schema: %w", err)
			}
		}
		return nil
	})
}
