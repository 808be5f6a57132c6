//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package model defines the typed records exchanged between the loader,
// the reconciliation engine, the storage manager and the warehouse.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for keys and identifiers.
const DateLayout = "2006-01-02"

// Delivery statuses recorded on sales transactions.
const (
	DeliveryPending   = "Pending"
	DeliveryInTransit = "In Transit"
	DeliveryDelivered = "Delivered"
	DeliveryCancelled = "Cancelled"
)

// SalesRecord is one sales transaction from fact_sales.
type SalesRecord struct {
	ID             string
	Date           time.Time
	ProductID      string
	RetailerID     string
	Quantity       int64
	UnitPrice      decimal.Decimal
	TotalAmount    decimal.Decimal
	DeliveryStatus string
}

// InventoryRecord is one periodic stock snapshot from fact_inventory.
type InventoryRecord struct {
	ID            string
	Date          time.Time
	ProductID     string
	LocationID    string
	OpeningStock  int64
	ClosingStock  int64
	StockReceived int64
	StockSold     int64
	StockLost     int64
	UnitCost      decimal.Decimal
	TotalValue    decimal.Decimal
}

// Product is the subset of dim_products joined into reconciliation rows.
type Product struct {
	ProductID   string
	SKU         string
	ProductName string
	Category    string
	Brand       string
	UnitPrice   decimal.Decimal
}

// OperatingCostRecord is one row of fact_operating_costs.
type OperatingCostRecord struct {
	ID       string
	Date     time.Time
	Category string
	Amount   decimal.Decimal
}

// MarketingCostRecord is one row of fact_marketing_costs.
type MarketingCostRecord struct {
	ID         string
	Date       time.Time
	CampaignID string
	Channel    string
	Amount     decimal.Decimal
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
