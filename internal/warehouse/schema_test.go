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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

func TestDropSchemaStatementsFollowArchiveSuffix(t *testing.T) {
	stmts := dropSchemaStatements("_old")

	assert.Len(t, stmts, 2*len(tables.All())+1)
	for _, def := range tables.All() {
		assert.Contains(t, stmts, `DROP TABLE IF EXISTS "`+def.Name+`_old" CASCADE`)
		assert.Contains(t, stmts, `DROP TABLE IF EXISTS "`+def.Name+`" CASCADE`)
		assert.NotContains(t, stmts, `DROP TABLE IF EXISTS "`+def.Name+`_archive" CASCADE`)
	}
	assert.Equal(t, `DROP TABLE IF EXISTS "dim_products" CASCADE`, stmts[len(stmts)-1])
}

func TestDropSchemaStatementsArchivesBeforeSources(t *testing.T) {
	stmts := dropSchemaStatements("_archive")
	n := len(tables.All())

	for i, def := range tables.All() {
		assert.Equal(t, `DROP TABLE IF EXISTS "`+def.Name+`_archive" CASCADE`, stmts[i])
		assert.Equal(t, `DROP TABLE IF EXISTS "`+def.Name+`" CASCADE`, stmts[n+i])
	}
}

func TestDropSchemaStatementsWithoutSuffix(t *testing.T) {
	assert.Len(t, dropSchemaStatements(""), len(tables.All())+1)
}
