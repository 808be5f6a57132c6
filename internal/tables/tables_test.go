//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package tables_test

import (
	"testing"

	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

func TestGet(t *testing.T) {
	known := []string{
		tables.FactSales,
		tables.FactInventory,
		tables.FactOperatingCosts,
		tables.FactMarketingCosts,
	}

	for _, name := range known {
		t.Run(name, func(t *testing.T) {
			def, err := tables.Get(name)
			if err != nil {
				t.Fatalf("Failed to get table '%s': %v", name, err)
			}
			if def.Name != name {
				t.Errorf("Name mismatch: expected '%s', got '%s'", name, def.Name)
			}
			if def.IDColumn == "" || def.DateColumn == "" {
				t.Error("IDColumn and DateColumn should not be empty")
			}
			if def.BaseRowSize <= 0 {
				t.Errorf("BaseRowSize should be positive, got %d", def.BaseRowSize)
			}
		})
	}
}

func TestGetUnknownTable(t *testing.T) {
	if _, err := tables.Get("fact_employees"); err == nil {
		t.Error("Expected error for unregistered table, got nil")
	}
}

func TestListSorted(t *testing.T) {
	names := tables.List()
	if len(names) != 4 {
		t.Fatalf("Expected 4 tables, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("List not sorted: %v", names)
		}
	}
}

func TestRowSizeHeuristics(t *testing.T) {
	tests := []struct {
		table string
		rows  int64
		want  int64
	}{
		{tables.FactSales, 1000, 32000000},
		{tables.FactInventory, 1000, 28000000},
		{tables.FactOperatingCosts, 1000, 1000000},
		{tables.FactMarketingCosts, 0, 0},
	}

	for _, tt := range tests {
		def, _ := tables.Get(tt.table)
		if got := def.EstimateBytes(tt.rows); got != tt.want {
			t.Errorf("EstimateBytes(%s, %d) = %d, want %d", tt.table, tt.rows, got, tt.want)
		}
	}
}

func TestArchiveName(t *testing.T) {
	def, _ := tables.Get(tables.FactSales)
	if got := def.ArchiveName("_archive"); got != "fact_sales_archive" {
		t.Errorf("ArchiveName = %s, want fact_sales_archive", got)
	}
}
