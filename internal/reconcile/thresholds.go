//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package reconcile compares sales against inventory stock movement,
// classifies the variance and proposes corrective adjustments.
package reconcile

import (
	"fmt"

	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// Thresholds are the variance percentages at which a row becomes WARNING
// or CRITICAL. Both bounds are inclusive.
type Thresholds struct {
	WarningPercent  float64
	CriticalPercent float64
}

// DefaultThresholds returns 5% for WARNING and 15% for CRITICAL.
func DefaultThresholds() Thresholds {
	return Thresholds{WarningPercent: 5, CriticalPercent: 15}
}

// Validate checks that the thresholds are positive and ordered.
func (t Thresholds) Validate() error {
	if t.WarningPercent <= 0 {
		return fmt.Errorf("warning threshold must be positive, got %v", t.WarningPercent)
	}
	if t.CriticalPercent <= t.WarningPercent {
		return fmt.Errorf("critical threshold %v must exceed warning threshold %v",
			t.CriticalPercent, t.WarningPercent)
	}
	return nil
}

// Classify maps a variance percentage to its level.
func (t Thresholds) Classify(pct float64) model.VarianceLevel {
	switch {
	case pct >= t.CriticalPercent:
		return model.VarianceCritical
	case pct >= t.WarningPercent:
		return model.VarianceWarning
	default:
		return model.VarianceAcceptable
	}
}
