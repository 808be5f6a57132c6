//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedPolicy(t *testing.T) {
	p := Fixed{MaxAttempts: 3, Delay: 30 * time.Second}

	d, ok := p.Next(1)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	d, ok = p.Next(2)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = p.Next(3)
	assert.False(t, ok)
}

func TestDefaultFixed(t *testing.T) {
	p := DefaultFixed()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 30*time.Second, p.Delay)
}

func TestExponentialPolicy(t *testing.T) {
	p := Exponential{MaxAttempts: 5, Initial: time.Second, Max: 3 * time.Second}

	d, _ := p.Next(1)
	assert.Equal(t, time.Second, d)
	d, _ = p.Next(2)
	assert.Equal(t, 2*time.Second, d)
	d, _ = p.Next(3)
	assert.Equal(t, 3*time.Second, d)
	_, ok := p.Next(5)
	assert.False(t, ok)
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Fixed{MaxAttempts: 3}, "fetch", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	err := Do(context.Background(), Fixed{MaxAttempts: 3}, "fetch", func(ctx context.Context) error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Fixed{MaxAttempts: 5, Delay: time.Hour}, "fetch", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
