//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package storage monitors warehouse usage against a quota and moves aged
// fact rows into archive tables.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

// ErrInvalidRetention is returned for non-positive retention periods.
var ErrInvalidRetention = errors.New("retention days must be positive")

// Store is the warehouse surface used by the manager.
type Store interface {
	TableSizes(ctx context.Context, names []string) ([]model.TableUsage, error)
	OldRowStats(ctx context.Context, def tables.Definition, cutoff time.Time) (model.OldRowStats, error)
	EnsureArchiveTable(ctx context.Context, def tables.Definition, archive string) error
	SelectArchiveBatch(ctx context.Context, def tables.Definition, cutoff time.Time, limit int) ([]string, error)
	CopyToArchive(ctx context.Context, def tables.Definition, archive string, ids []string) (int64, error)
	DeleteRows(ctx context.Context, def tables.Definition, ids []string) (int64, error)
}

// Options configures a Manager.
type Options struct {
	QuotaBytes       int64
	WarningFraction  float64
	CriticalFraction float64
	BatchSize        int
	ArchiveSuffix    string

	// Tables are the fact tables eligible for archiving.
	Tables []tables.Definition

	// ExtraTables are measured for usage but never archived.
	ExtraTables []string
}

// DefaultOptions returns a 10GB quota with 80%/95% thresholds and 50000
// row archive batches over every registered table.
func DefaultOptions() Options {
	return Options{
		QuotaBytes:       10 * 1024 * 1024 * 1024,
		WarningFraction:  0.80,
		CriticalFraction: 0.95,
		BatchSize:        50000,
		ArchiveSuffix:    "_archive",
		Tables:           tables.All(),
		ExtraTables:      []string{tables.DimProducts},
	}
}

// Manager runs usage checks, archiving plans and archive execution.
type Manager struct {
	store Store
	opts  Options
	now   func() time.Time
}

// NewManager creates a manager over the given store.
func NewManager(store Store, opts Options) *Manager {
	defaults := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	if opts.ArchiveSuffix == "" {
		opts.ArchiveSuffix = defaults.ArchiveSuffix
	}
	if opts.Tables == nil {
		opts.Tables = defaults.Tables
	}
	return &Manager{store: store, opts: opts, now: time.Now}
}

// Status classifies a byte count against the quota.
func (m *Manager) Status(usedBytes int64) model.StorageStatus {
	if m.opts.QuotaBytes <= 0 {
		return model.StorageOK
	}
	switch used := float64(usedBytes); {
	case used >= float64(m.opts.QuotaBytes)*m.opts.CriticalFraction:
		return model.StorageCritical
	case used >= float64(m.opts.QuotaBytes)*m.opts.WarningFraction:
		return model.StorageWarning
	default:
		return model.StorageOK
	}
}

// Usage measures the managed tables and their archives. A failed
// measurement yields an ERROR snapshot rather than an error.
func (m *Manager) Usage(ctx context.Context) model.StorageUsageSnapshot {
	snapshot := model.StorageUsageSnapshot{
		QuotaBytes: m.opts.QuotaBytes,
		AnalyzedAt: m.now().UTC(),
	}

	usage, err := m.store.TableSizes(ctx, m.measuredTables())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to measure storage usage")
		snapshot.Status = model.StorageError
		snapshot.Error = err.Error()
		return snapshot
	}

	sort.Slice(usage, func(i, j int) bool {
		return usage[i].StorageBytes > usage[j].StorageBytes
	})
	for _, u := range usage {
		snapshot.TotalStorageBytes += u.StorageBytes
	}
	snapshot.Tables = usage
	if m.opts.QuotaBytes > 0 {
		snapshot.UsagePercentage = float64(snapshot.TotalStorageBytes) * 100 / float64(m.opts.QuotaBytes)
	}
	snapshot.Status = m.Status(snapshot.TotalStorageBytes)

	logging.Debug().
		Int64("total_bytes", snapshot.TotalStorageBytes).
		Float64("usage_percent", snapshot.UsagePercentage).
		Str("status", string(snapshot.Status)).
		Msg("Storage usage measured")

	return snapshot
}

func (m *Manager) measuredTables() []string {
	names := make([]string, 0, 2*len(m.opts.Tables)+len(m.opts.ExtraTables))
	for _, def := range m.opts.Tables {
		names = append(names, def.Name, def.ArchiveName(m.opts.ArchiveSuffix))
	}
	return append(names, m.opts.ExtraTables...)
}

// Plan inspects every archivable table for rows older than the retention
// period. Tables that cannot be inspected carry the error in their plan.
func (m *Manager) Plan(ctx context.Context, retentionDays int) ([]model.ArchivingPlan, error) {
	if retentionDays <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidRetention, retentionDays)
	}
	cutoff := model.Day(m.now().UTC()).AddDate(0, 0, -retentionDays)

	plans := make([]model.ArchivingPlan, 0, len(m.opts.Tables))
	for _, def := range m.opts.Tables {
		plan := model.ArchivingPlan{
			Table:        def.Name,
			ArchiveTable: def.ArchiveName(m.opts.ArchiveSuffix),
			CutoffDate:   cutoff,
		}

		stats, err := m.store.OldRowStats(ctx, def, cutoff)
		if err != nil {
			logging.Error().Err(err).Str("table", def.Name).Msg("Failed to inspect table")
			plan.Err = err
			plans = append(plans, plan)
			continue
		}

		plan.OldRecordCount = stats.Count
		plan.OldestDate = stats.Oldest
		plan.NewestDate = stats.Newest
		plan.EstimatedStorageSaved = def.EstimateBytes(stats.Count)
		plans = append(plans, plan)

		logging.Debug().
			Str("table", def.Name).
			Int64("old_rows", stats.Count).
			Int64("estimated_bytes", plan.EstimatedStorageSaved).
			Msg("Planned archiving")
	}
	return plans, nil
}
