//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader pages rows for a date window out of a warehouse fact
// table with retry and a hard page cap.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/retry"
)

// ErrInvalidRequest is returned for windows or page sizes that cannot be
// loaded.
var ErrInvalidRequest = errors.New("invalid load request")

// Defaults applied when Options leaves a field unset.
const (
	DefaultPageSize           = 50000
	DefaultHistoricalPageSize = 100000
	DefaultMaxPages           = 50
)

// PageFunc fetches one page of rows dated within [start, end], ordered by
// date, product and retailer or location.
type PageFunc[T any] func(ctx context.Context, start, end time.Time, limit, offset int) ([]T, error)

// Options configures a Loader.
type Options struct {
	HistoricalPageSize int
	MaxPages           int
	Policy             retry.Policy
}

// Request describes one windowed load.
type Request struct {
	Table      string
	Start      time.Time
	End        time.Time
	PageSize   int
	Historical bool
}

// Validate checks the window and page size.
func (r Request) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	if model.Day(r.Start).After(model.Day(r.End)) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidRequest,
			r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout))
	}
	if !r.Historical && r.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidRequest, r.PageSize)
	}
	return nil
}

// Result is the outcome of a load. Truncated is set when the page cap
// stopped loading while more rows may exist.
type Result[T any] struct {
	Rows      []T
	Pages     int
	Truncated bool
}

// Loader runs paged loads sequentially.
type Loader struct {
	opts Options
}

// New creates a Loader, filling unset options with defaults.
func New(opts Options) *Loader {
	if opts.HistoricalPageSize <= 0 {
		opts.HistoricalPageSize = DefaultHistoricalPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Policy == nil {
		opts.Policy = retry.DefaultFixed()
	}
	return &Loader{opts: opts}
}

// Options returns the effective loader options.
func (l *Loader) Options() Options {
	return l.opts
}

// Load fetches every page of the request. A page that still fails after
// retries fails the whole load and no rows are returned.
func Load[T any](ctx context.Context, l *Loader, req Request, fetch PageFunc[T]) (*Result[T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pageSize := req.PageSize
	if req.Historical {
		pageSize = l.opts.HistoricalPageSize
	}
	start, end := model.Day(req.Start), model.Day(req.End)

	logging.Debug().
		Str("table", req.Table).
		Str("start", start.Format(model.DateLayout)).
		Str("end", end.Format(model.DateLayout)).
		Int("page_size", pageSize).
		Bool("historical", req.Historical).
		Msg("Loading table")

	result := &Result[T]{}
	for {
		if result.Pages >= l.opts.MaxPages {
			more, err := hasMore(ctx, l, req.Table, start, end, result.Pages*pageSize, fetch)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", req.Table, err)
			}
			if !more {
				break
			}
			result.Truncated = true
			logging.Warn().
				Str("table", req.Table).
				Int("pages", result.Pages).
				Int("rows", len(result.Rows)).
				Msg("Page limit reached, results may be incomplete")
			break
		}

		offset := result.Pages * pageSize
		var page []T
		err := retry.Do(ctx, l.opts.Policy, "load "+req.Table, func(ctx context.Context) error {
			var err error
			page, err = fetch(ctx, start, end, pageSize, offset)
			return err
		})
		if err != nil {
			logging.Error().
				Err(err).
				Str("table", req.Table).
				Int("offset", offset).
				Int("discarded_rows", len(result.Rows)).
				Msg("Load failed")
			return nil, fmt.Errorf("failed to load %s: %w", req.Table, err)
		}

		result.Pages++
		result.Rows = append(result.Rows, page...)

		logging.Debug().
			Str("table", req.Table).
			Int("page", result.Pages).
			Int("page_rows", len(page)).
			Int("total_rows", len(result.Rows)).
			Msg("Loaded page")

		if len(page) < pageSize {
			break
		}
	}

	logging.Info().
		Str("table", req.Table).
		Int("rows", len(result.Rows)).
		Int("pages", result.Pages).
		Msg("Table loaded")

	return result, nil
}

// hasMore reports whether at least one row exists at offset.
func hasMore[T any](ctx context.Context, l *Loader, table string, start, end time.Time, offset int, fetch PageFunc[T]) (bool, error) {
	var page []T
	err := retry.Do(ctx, l.opts.Policy, "load "+table, func(ctx context.Context) error {
		var err error
		page, err = fetch(ctx, start, end, 1, offset)
		return err
	})
	if err != nil {
		return false, err
	}
	return len(page) > 0, nil
}
