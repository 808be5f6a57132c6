//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-reconcile/internal/retry"
)

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

// fakeTable serves integer rows with LIMIT/OFFSET semantics.
type fakeTable struct {
	rows    int
	calls   []int
	failAt  map[int]int // offset -> remaining failures
	failErr error
}

func (f *fakeTable) fetch(ctx context.Context, start, end time.Time, limit, offset int) ([]int, error) {
	f.calls = append(f.calls, limit)
	if n := f.failAt[offset]; n > 0 {
		f.failAt[offset] = n - 1
		return nil, f.failErr
	}
	var page []int
	for i := offset; i < f.rows && i < offset+limit; i++ {
		page = append(page, i)
	}
	return page, nil
}

func newTestLoader(maxPages int) *Loader {
	return New(Options{
		HistoricalPageSize: 1000,
		MaxPages:           maxPages,
		Policy:             retry.Fixed{MaxAttempts: 3},
	})
}

func TestLoadPagesUntilShortPage(t *testing.T) {
	table := &fakeTable{rows: 25}
	l := newTestLoader(50)

	res, err := Load(context.Background(), l, Request{Table: "fact_sales", Start: jan1, End: jan31, PageSize: 10}, table.fetch)
	require.NoError(t, err)

	assert.Len(t, res.Rows, 25)
	assert.Equal(t, 3, res.Pages)
	assert.False(t, res.Truncated)
	for i, v := range res.Rows {
		assert.Equal(t, i, v)
	}
}

func TestLoadExactMultipleFetchesEmptyPage(t *testing.T) {
	table := &fakeTable{rows: 20}
	res, err := Load(context.Background(), newTestLoader(50), Request{Start: jan1, End: jan31, PageSize: 10}, table.fetch)
	require.NoError(t, err)

	assert.Len(t, res.Rows, 20)
	assert.Equal(t, 3, res.Pages)
}

func TestLoadRetriesTransientFailure(t *testing.T) {
	table := &fakeTable{rows: 15, failAt: map[int]int{10: 2}, failErr: errors.New("timeout")}
	res, err := Load(context.Background(), newTestLoader(50), Request{Start: jan1, End: jan31, PageSize: 10}, table.fetch)
	require.NoError(t, err)

	assert.Len(t, res.Rows, 15)
	assert.Len(t, table.calls, 4)
}

func TestLoadDiscardsEverythingAfterExhaustedRetries(t *testing.T) {
	boom := errors.New("connection refused")
	table := &fakeTable{rows: 100, failAt: map[int]int{20: 3}, failErr: boom}

	res, err := Load(context.Background(), newTestLoader(50), Request{Table: "fact_inventory", Start: jan1, End: jan31, PageSize: 10}, table.fetch)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fact_inventory")
}

func TestLoadStopsAtPageCap(t *testing.T) {
	table := &fakeTable{rows: 1000}
	res, err := Load(context.Background(), newTestLoader(5), Request{Start: jan1, End: jan31, PageSize: 10}, table.fetch)
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, 5, res.Pages)
	assert.Len(t, res.Rows, 50)
}

func TestLoadFullWindowAtPageCapIsComplete(t *testing.T) {
	table := &fakeTable{rows: 4}
	res, err := Load(context.Background(), newTestLoader(2), Request{Start: jan1, End: jan31, PageSize: 2}, table.fetch)
	require.NoError(t, err)

	assert.False(t, res.Truncated)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Rows, 4)
	assert.Equal(t, []int{2, 2, 1}, table.calls)
}

func TestLoadHistoricalForcesPageSize(t *testing.T) {
	table := &fakeTable{rows: 1500}
	res, err := Load(context.Background(), newTestLoader(50), Request{Start: jan1, End: jan31, PageSize: 0, Historical: true}, table.fetch)
	require.NoError(t, err)

	assert.Len(t, res.Rows, 1500)
	for _, limit := range table.calls {
		assert.Equal(t, 1000, limit)
	}
}

func TestLoadRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"start after end", Request{Start: jan31, End: jan1, PageSize: 10}},
		{"zero page size", Request{Start: jan1, End: jan31}},
		{"negative page size", Request{Start: jan1, End: jan31, PageSize: -5}},
		{"missing dates", Request{PageSize: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &fakeTable{rows: 10}
			_, err := Load(context.Background(), newTestLoader(50), tt.req, table.fetch)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Empty(t, table.calls)
		})
	}
}

func TestNewFillsDefaults(t *testing.T) {
	opts := New(Options{}).Options()
	assert.Equal(t, DefaultHistoricalPageSize, opts.HistoricalPageSize)
	assert.Equal(t, DefaultMaxPages, opts.MaxPages)
	assert.Equal(t, retry.DefaultFixed(), opts.Policy)
}
