//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package storage

import (
	"context"

	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// Storage recommendation texts.
const (
	RecommendArchiveNow     = "URGENT: Archive old data immediately to free up storage"
	RecommendIncreaseQuota  = "Consider increasing the storage quota"
	RecommendArchiveOld     = "Archive data older than the retention window"
	RecommendAggregateViews = "Create aggregated views for historical analysis"
)

// Report combines usage, archiving plans and recommendations.
type Report struct {
	Usage                 model.StorageUsageSnapshot
	Plans                 []model.ArchivingPlan
	TotalEstimatedSavings int64
	Recommendations       []string
}

// Report measures usage and plans archiving for the retention period.
func (m *Manager) Report(ctx context.Context, retentionDays int) (*Report, error) {
	plans, err := m.Plan(ctx, retentionDays)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Usage:           m.Usage(ctx),
		Plans:           plans,
		Recommendations: []string{},
	}
	for _, p := range plans {
		report.TotalEstimatedSavings += p.EstimatedStorageSaved
	}

	switch report.Usage.Status {
	case model.StorageCritical:
		report.Recommendations = append(report.Recommendations, RecommendArchiveNow, RecommendIncreaseQuota)
	case model.StorageWarning:
		report.Recommendations = append(report.Recommendations, RecommendArchiveOld, RecommendAggregateViews)
	}
	return report, nil
}
