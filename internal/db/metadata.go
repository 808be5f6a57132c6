//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/pkg/version"
)

const metadataTable = "reconcile_metadata"

// tableCreatedPrefix prefixes metadata keys holding table creation times.
const tableCreatedPrefix = "table_created:"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS reconcile_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveMetadata records schema initialization and the creation time of
// each managed table.
func SaveMetadata(ctx context.Context, pool *pgxpool.Pool, tableNames []string) error {
	if _, err := pool.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	metadata := map[string]string{
		"version":        version.Short(),
		"initialized_at": now,
	}
	for _, name := range tableNames {
		metadata[tableCreatedPrefix+name] = now
	}

	for key, value := range metadata {
		if err := setMetadata(ctx, pool, key, value, true); err != nil {
			return err
		}
	}

	logging.Debug().
		Int("tables", len(tableNames)).
		Msg("Saved metadata")

	return nil
}

// RecordTableCreated records a table's creation time unless one is
// already stored.
func RecordTableCreated(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if _, err := pool.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	return setMetadata(ctx, pool, tableCreatedPrefix+table, time.Now().UTC().Format(time.RFC3339), false)
}

func setMetadata(ctx context.Context, pool *pgxpool.Pool, key, value string, overwrite bool) error {
	sql := `
        INSERT INTO reconcile_metadata (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO NOTHING
    `
	if overwrite {
		sql = `
            INSERT INTO reconcile_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `
	}
	if _, err := pool.Exec(ctx, sql, key, value); err != nil {
		return fmt.Errorf("failed to save metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx, `
        SELECT value FROM reconcile_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	rows, err := pool.Query(ctx, `SELECT key, value FROM reconcile_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// TableCreationTimes returns the recorded creation time of every table.
func TableCreationTimes(ctx context.Context, pool *pgxpool.Pool) (map[string]time.Time, error) {
	metadata, err := GetAllMetadata(ctx, pool)
	if err != nil {
		return nil, err
	}
	return parseCreationTimes(metadata), nil
}

func parseCreationTimes(metadata map[string]string) map[string]time.Time {
	created := make(map[string]time.Time)
	for key, value := range metadata {
		table, ok := strings.CutPrefix(key, tableCreatedPrefix)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			continue
		}
		created[table] = ts
	}
	return created
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, metadataTable).Scan(&exists)
	return exists, err
}
