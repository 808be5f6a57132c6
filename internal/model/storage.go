//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package model

import "time"

// StorageStatus classifies warehouse usage against the quota.
type StorageStatus string

// Storage statuses. ERROR means usage could not be measured.
const (
	StorageOK       StorageStatus = "OK"
	StorageWarning  StorageStatus = "WARNING"
	StorageCritical StorageStatus = "CRITICAL"
	StorageError    StorageStatus = "ERROR"
)

// TableUsage is the measured footprint of one warehouse table.
type TableUsage struct {
	TableID      string
	StorageBytes int64
	RowCount     int64 // estimated
	Created      time.Time
	Modified     time.Time
}

// StorageUsageSnapshot is a point-in-time view of warehouse usage.
type StorageUsageSnapshot struct {
	TotalStorageBytes int64
	QuotaBytes        int64
	UsagePercentage   float64
	Tables            []TableUsage
	Status            StorageStatus
	Error             string
	AnalyzedAt        time.Time
}

// OldRowStats describes the rows of a table older than a cutoff.
type OldRowStats struct {
	Count  int64
	Oldest time.Time
	Newest time.Time
}

// ArchivingPlan describes what archiving would move for one table.
type ArchivingPlan struct {
	Table                 string
	ArchiveTable          string
	OldRecordCount        int64
	OldestDate            time.Time
	NewestDate            time.Time
	CutoffDate            time.Time
	EstimatedStorageSaved int64

	// Err is set when the table could not be inspected; such plans are
	// never executed.
	Err error
}
