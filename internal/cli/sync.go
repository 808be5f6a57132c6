//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-reconcile/internal/export"
	"github.com/pgEdge/pgedge-reconcile/internal/loader"
	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/reconcile"
	"github.com/pgEdge/pgedge-reconcile/internal/storage"
)

// historicalStart is the window start of historical runs without a start
// date.
var historicalStart = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	syncStartDate        string
	syncEndDate          string
	syncApplyAdjustments bool
	syncInteractive      bool
	syncHistorical       bool
	syncPageSize         int
	syncSKUSummary       bool
	syncExport           string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile sales against inventory for a date window",
	Long: `Load sales and inventory for a window of days, compare the quantity
sold per product and day, and report the variances. With
--apply-adjustments, inventory stock sold is corrected to match sales for
every WARNING or CRITICAL row. Runs are refused while warehouse storage is
critical.

Without --start-date the window covers the last 90 days (configurable), or
everything since 2015-01-01 with --historical.

Example:
  pgedge-reconcile sync --start-date 2026-01-01 --end-date 2026-03-31
  pgedge-reconcile sync --apply-adjustments --interactive
  pgedge-reconcile sync --historical --sku-summary --export report.xlsx`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncStartDate, "start-date", "",
		"first day of the window (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&syncEndDate, "end-date", "",
		"last day of the window (YYYY-MM-DD, default: today)")
	syncCmd.Flags().BoolVar(&syncApplyAdjustments, "apply-adjustments", false,
		"apply proposed inventory adjustments")
	syncCmd.Flags().BoolVar(&syncInteractive, "interactive", false,
		"ask before applying adjustments")
	syncCmd.Flags().BoolVar(&syncHistorical, "historical", false,
		"use historical paging for large windows")
	syncCmd.Flags().IntVar(&syncPageSize, "page-size", 0,
		"rows per warehouse page (default: 50000)")
	syncCmd.Flags().BoolVar(&syncSKUSummary, "sku-summary", false,
		"print totals per SKU across the window")
	syncCmd.Flags().StringVar(&syncExport, "export", "",
		"write the results to an xlsx workbook")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncPageSize != 0 {
		cfg.Loader.PageSize = syncPageSize
	}
	if err := cfg.ValidateSync(); err != nil {
		return err
	}

	start, end, err := resolveWindow(syncStartDate, syncEndDate, syncHistorical,
		cfg.Reconcile.DefaultWindowDays, time.Now())
	if err != nil {
		return err
	}

	thresholds := reconcile.Thresholds{
		WarningPercent:  cfg.Reconcile.MaxAcceptableVariance,
		CriticalPercent: cfg.Reconcile.CriticalVariance,
	}
	if err := thresholds.Validate(); err != nil {
		return err
	}
	storageOpts, err := storageOptions(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, wh, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	runner := reconcile.NewRunner(wh,
		storage.NewManager(wh, storageOpts),
		loader.New(loader.Options{
			HistoricalPageSize: cfg.Loader.HistoricalPageSize,
			MaxPages:           cfg.Loader.MaxPages,
			Policy:             cfg.RetryPolicy(),
		}),
		reconcile.NewEngine(thresholds),
		cfg.Reconcile.TopIssues,
	)

	opts := reconcile.RunOptions{
		Start:            start,
		End:              end,
		PageSize:         cfg.Loader.PageSize,
		Historical:       syncHistorical,
		ApplyAdjustments: syncApplyAdjustments,
		SKUSummary:       syncSKUSummary,
	}
	if syncInteractive {
		opts.Confirm = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).confirmAdjustments
	}

	result, err := runner.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, reconcile.ErrEmptyDataset) {
			logging.Warn().
				Str("start", start.Format(model.DateLayout)).
				Str("end", end.Format(model.DateLayout)).
				Msg("No sales or inventory data in window")
		}
		return err
	}

	printRunResult(cmd.OutOrStdout(), result)

	if syncExport != "" {
		if err := export.WriteWorkbook(result, syncExport); err != nil {
			return err
		}
	}

	if result.Status != reconcile.StatusSuccess {
		return fmt.Errorf("synchronization %s: %s", result.Status, result.Reason)
	}
	return nil
}

// parseDate parses a YYYY-MM-DD calendar date.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// resolveWindow applies the default window rules: the end defaults to
// today, the start to windowDays before the end, or to 2015-01-01 for
// historical runs.
func resolveWindow(startStr, endStr string, historical bool, windowDays int, now time.Time) (time.Time, time.Time, error) {
	end := model.Day(now)
	if endStr != "" {
		var err error
		if end, err = parseDate(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	var start time.Time
	switch {
	case startStr != "":
		var err error
		if start, err = parseDate(startStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	case historical:
		start = historicalStart
	default:
		start = end.AddDate(0, 0, -windowDays)
	}
	return start, end, nil
}

func printRunResult(out io.Writer, res *reconcile.RunResult) {
	s := res.Report.Summary
	fmt.Fprintf(out, "\nRun %s: %s", res.RunID, res.Status)
	if res.Reason != "" {
		fmt.Fprintf(out, " (%s)", res.Reason)
	}
	fmt.Fprintf(out, "\nWindow: %s to %s\n",
		res.Start.Format(model.DateLayout), res.End.Format(model.DateLayout))
	if res.Storage != nil {
		fmt.Fprintf(out, "Storage: %s (%.1f%% of quota)\n", res.Storage.Status, res.Storage.UsagePercentage)
	}
	if res.Status != reconcile.StatusSuccess && len(res.Rows) == 0 {
		return
	}
	if res.Truncated {
		fmt.Fprintln(out, "Warning: page limit reached, results cover a partial window")
	}

	fmt.Fprintf(out, "\nRecords: %d  Acceptable: %d  Warning: %d  Critical: %d (%.1f%%)\n",
		s.TotalRecords, s.AcceptableCount, s.WarningCount, s.CriticalCount, s.CriticalPercentage)
	fmt.Fprintf(out, "Mean variance: %.2f%%  Max variance: %.2f%%\n", s.MeanVariancePct, s.MaxVariancePct)

	if len(res.Report.TopIssues) > 0 {
		fmt.Fprintln(out, "\nTop issues:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  PRODUCT\tSKU\tDATE\tSALES\tSTOCK SOLD\tVARIANCE %\tLEVEL")
		for _, r := range res.Report.TopIssues {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%d\t%.2f\t%s\n",
				r.ProductID, r.SKU(), r.Date.Format(model.DateLayout),
				r.SalesQuantity, r.StockSold, r.VariancePercentage, r.VarianceLevel)
		}
		w.Flush()
	}

	for _, rec := range res.Report.Recommendations {
		fmt.Fprintf(out, "Recommendation: %s\n", rec)
	}

	a := res.Report.Adjustments
	fmt.Fprintf(out, "\nProposed adjustments: %d (%d increases, %d decreases, %d units)\n",
		a.Count, a.Increases, a.Decreases, a.TotalQuantity)
	if res.Apply != nil {
		fmt.Fprintf(out, "Applied: %d of %d\n", res.Apply.Applied(), len(res.Apply.Results))
		for _, f := range res.Apply.Failed() {
			fmt.Fprintf(out, "  failed %s: %v\n", f.AdjustmentID, f.Err)
		}
	}

	if len(res.SKUs) > 0 {
		fmt.Fprintln(out, "\nSKU summary:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  SKU\tPRODUCT\tSALES\tREVENUE\tSTOCK SOLD\tVARIANCE %")
		for _, t := range res.SKUs {
			fmt.Fprintf(w, "  %s\t%s\t%d\t%s\t%d\t%.2f\n",
				t.SKU, t.ProductName, t.SalesQuantity, t.SalesAmount.StringFixed(2),
				t.StockSold, t.VariancePercentage)
		}
		w.Flush()
	}
}
