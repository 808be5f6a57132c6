//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package tables

// Managed fact table names.
const (
	FactSales          = "fact_sales"
	FactInventory      = "fact_inventory"
	FactOperatingCosts = "fact_operating_costs"
	FactMarketingCosts = "fact_marketing_costs"
)

// DimProducts is the product dimension joined into reconciliation rows.
const DimProducts = "dim_products"

func init() {
	Register(Definition{
		Name:        FactSales,
		IDColumn:    "sale_id",
		DateColumn:  "sale_date",
		IDPrefix:    "SAL",
		BaseRowSize: 32000,
		Description: "Sales transactions per product and retailer",
	})
	Register(Definition{
		Name:        FactInventory,
		IDColumn:    "inventory_id",
		DateColumn:  "inventory_date",
		IDPrefix:    "INV",
		BaseRowSize: 28000,
		Description: "Daily stock snapshots per product and location",
	})
	Register(Definition{
		Name:        FactOperatingCosts,
		IDColumn:    "cost_id",
		DateColumn:  "cost_date",
		IDPrefix:    "COS",
		BaseRowSize: 1000,
		Description: "Operating costs per category",
	})
	Register(Definition{
		Name:        FactMarketingCosts,
		IDColumn:    "cost_id",
		DateColumn:  "cost_date",
		IDPrefix:    "MAR",
		BaseRowSize: 1000,
		Description: "Marketing spend per campaign and channel",
	})
}
