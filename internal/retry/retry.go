//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package retry runs warehouse operations under a pluggable retry policy.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
)

// Policy decides whether a failed attempt is retried and how long to wait
// first. Attempts are numbered from 1.
type Policy interface {
	Next(attempt int) (time.Duration, bool)
}

// Fixed retries a bounded number of times with a constant delay.
type Fixed struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultFixed returns the warehouse default: three attempts, 30s apart.
func DefaultFixed() Fixed {
	return Fixed{MaxAttempts: 3, Delay: 30 * time.Second}
}

// Next implements Policy.
func (p Fixed) Next(attempt int) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.Delay, true
}

// Exponential doubles (or multiplies by Multiplier) the delay after every
// failed attempt, capped at Max.
type Exponential struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

// Next implements Policy.
func (p Exponential) Next(attempt int) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	mult := p.Multiplier
	if mult <= 1 {
		mult = 2
	}
	delay := time.Duration(float64(p.Initial) * math.Pow(mult, float64(attempt-1)))
	if p.Max > 0 && delay > p.Max {
		delay = p.Max
	}
	return delay, true
}

// Do runs fn until it succeeds or the policy gives up. The context is
// checked between attempts only; a running attempt is never interrupted
// by Do itself.
func Do(ctx context.Context, policy Policy, op string, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		delay, again := policy.Next(attempt)
		if !again {
			return fmt.Errorf("%s failed after %d attempts: %w", op, attempt, err)
		}

		logging.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Operation failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s cancelled after %d attempts: %w", op, attempt, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
