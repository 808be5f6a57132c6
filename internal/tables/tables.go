//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package tables registers the warehouse fact tables managed by the
// reconciliation and archiving commands.
package tables

import (
	"fmt"
	"sort"
	"sync"
)

// Definition describes a managed fact table.
type Definition struct {
	// Name is the table name in the warehouse.
	Name string

	// IDColumn is the primary key column used to batch archive moves.
	IDColumn string

	// DateColumn is the column compared against the retention cutoff.
	DateColumn string

	// IDPrefix prefixes generated identifiers for this table.
	IDPrefix string

	// BaseRowSize is the per-row storage estimate in bytes.
	BaseRowSize int64

	// Description is shown by the tables command.
	Description string
}

// ArchiveName returns the sibling archive table for the given suffix.
func (d Definition) ArchiveName(suffix string) string {
	return d.Name + suffix
}

// EstimateBytes estimates the storage held by rows of this table.
func (d Definition) EstimateBytes(rows int64) int64 {
	return rows * d.BaseRowSize
}

var (
	registry = make(map[string]Definition)
	mu       sync.RWMutex
)

// Register adds a table definition to the registry.
func Register(def Definition) {
	mu.Lock()
	defer mu.Unlock()
	registry[def.Name] = def
}

// Get retrieves a table definition by name.
func Get(name string) (Definition, error) {
	mu.RLock()
	defer mu.RUnlock()

	def, ok := registry[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown table: %s", name)
	}
	return def, nil
}

// List returns all registered table names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered definitions sorted by name.
func All() []Definition {
	mu.RLock()
	defer mu.RUnlock()

	defs := make([]Definition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
