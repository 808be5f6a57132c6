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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-reconcile/internal/db"
	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

// TableSizes measures every existing table in names. Tables that do not
// exist are skipped. Row counts are planner estimates, falling back to the
// live tuple counter for tables never analyzed.
func (w *Warehouse) TableSizes(ctx context.Context, names []string) ([]model.TableUsage, error) {
	rows, err := w.pool.Query(ctx, `
        SELECT c.relname,
               pg_total_relation_size(c.oid),
               CASE WHEN c.reltuples >= 0 THEN c.reltuples::bigint
                    ELSE COALESCE(s.n_live_tup, 0) END,
               GREATEST(s.last_vacuum, s.last_autovacuum, s.last_analyze, s.last_autoanalyze)
        FROM pg_class c
        LEFT JOIN pg_stat_user_tables s ON s.relid = c.oid
        WHERE c.relkind = 'r'
          AND pg_table_is_visible(c.oid)
          AND c.relname = ANY($1)
        ORDER BY c.relname
    `, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query table sizes: %w", err)
	}

	var usage []model.TableUsage
	for rows.Next() {
		var u model.TableUsage
		var modified *time.Time
		if err := rows.Scan(&u.TableID, &u.StorageBytes, &u.RowCount, &modified); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan table size: %w", err)
		}
		if modified != nil {
			u.Modified = *modified
		}
		usage = append(usage, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table sizes: %w", err)
	}

	created, err := db.TableCreationTimes(ctx, w.pool)
	if err != nil {
		logging.Debug().Err(err).Msg("No table creation metadata")
	}

	for i := range usage {
		usage[i].Created = created[usage[i].TableID]
	}

	return usage, nil
}

// OldRowStats counts the rows of a table dated before the cutoff.
func (w *Warehouse) OldRowStats(ctx context.Context, def tables.Definition, cutoff time.Time) (model.OldRowStats, error) {
	sql := fmt.Sprintf(
		"SELECT count(*), min(%[1]s), max(%[1]s) FROM %[2]s WHERE %[1]s < $1",
		pgx.Identifier{def.DateColumn}.Sanitize(),
		pgx.Identifier{def.Name}.Sanitize(),
	)

	var stats model.OldRowStats
	var oldest, newest *time.Time
	if err := w.pool.QueryRow(ctx, sql, cutoff).Scan(&stats.Count, &oldest, &newest); err != nil {
		return model.OldRowStats{}, fmt.Errorf("failed to inspect %s: %w", def.Name, err)
	}
	if oldest != nil {
		stats.Oldest = *oldest
	}
	if newest != nil {
		stats.Newest = *newest
	}
	return stats, nil
}

// EnsureArchiveTable creates the archive table with the source table's
// structure if it does not exist.
func (w *Warehouse) EnsureArchiveTable(ctx context.Context, def tables.Definition, archive string) error {
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (LIKE %s INCLUDING ALL)",
		pgx.Identifier{archive}.Sanitize(),
		pgx.Identifier{def.Name}.Sanitize(),
	)
	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to create archive table %s: %w", archive, err)
	}
	if err := db.RecordTableCreated(ctx, w.pool, archive); err != nil {
		logging.Warn().Err(err).Str("table", archive).Msg("Failed to record archive creation")
	}
	return nil
}

// SelectArchiveBatch returns up to limit ids of rows dated before the
// cutoff, oldest first.
func (w *Warehouse) SelectArchiveBatch(ctx context.Context, def tables.Definition, cutoff time.Time, limit int) ([]string, error) {
	sql := fmt.Sprintf("SELECT %[1]s FROM %[2]s WHERE %[3]s < $1 ORDER BY %[3]s, %[1]s LIMIT $2",
		pgx.Identifier{def.IDColumn}.Sanitize(),
		pgx.Identifier{def.Name}.Sanitize(),
		pgx.Identifier{def.DateColumn}.Sanitize(),
	)

	rows, err := w.pool.Query(ctx, sql, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select batch from %s: %w", def.Name, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read batch from %s: %w", def.Name, err)
	}
	return ids, nil
}

// CopyToArchive inserts the given rows into the archive table. Rows that
// are already archived are left untouched.
func (w *Warehouse) CopyToArchive(ctx context.Context, def tables.Definition, archive string, ids []string) (int64, error) {
	sql := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s WHERE %s = ANY($1) ON CONFLICT DO NOTHING",
		pgx.Identifier{archive}.Sanitize(),
		pgx.Identifier{def.Name}.Sanitize(),
		pgx.Identifier{def.IDColumn}.Sanitize(),
	)
	tag, err := w.pool.Exec(ctx, sql, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to copy batch into %s: %w", archive, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteRows deletes the given rows from the source table.
func (w *Warehouse) DeleteRows(ctx context.Context, def tables.Definition, ids []string) (int64, error) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)",
		pgx.Identifier{def.Name}.Sanitize(),
		pgx.Identifier{def.IDColumn}.Sanitize(),
	)
	tag, err := w.pool.Exec(ctx, sql, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch from %s: %w", def.Name, err)
	}
	return tag.RowsAffected(), nil
}
