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
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-reconcile/internal/datagen"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/storage"
)

var (
	storageRetentionDays int
	storageInteractive   bool
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect warehouse storage and archive aged rows",
	Long: `Measure warehouse storage against the configured quota, plan which
fact rows are older than the retention period, and move them into archive
tables.`,
}

var storageUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show storage usage against the quota",
	RunE:  runStorageUsage,
}

var storagePlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show rows eligible for archiving",
	RunE:  runStoragePlan,
}

var storageArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move rows older than the retention period into archive tables",
	Long: `Copy rows older than the retention period into <table>_archive in
batches and delete them from the source table. Each table is processed
independently; a failure on one table does not stop the others.

Example:
  pgedge-reconcile storage archive --retention-days 365 --interactive`,
	RunE: runStorageArchive,
}

func init() {
	for _, c := range []*cobra.Command{storagePlanCmd, storageArchiveCmd} {
		c.Flags().IntVar(&storageRetentionDays, "retention-days", 0,
			"archive rows older than this many days (default: 180)")
	}
	storageArchiveCmd.Flags().BoolVar(&storageInteractive, "interactive", false,
		"ask before archiving each table")

	storageCmd.AddCommand(storageUsageCmd)
	storageCmd.AddCommand(storagePlanCmd)
	storageCmd.AddCommand(storageArchiveCmd)
}

func newManager(ctx context.Context) (*storage.Manager, func(), error) {
	if storageRetentionDays != 0 {
		cfg.Storage.RetentionDays = storageRetentionDays
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, nil, err
	}
	opts, err := storageOptions(cfg)
	if err != nil {
		return nil, nil, err
	}
	pool, wh, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewManager(wh, opts), pool.Close, nil
}

func runStorageUsage(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	m, closeFn, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	snapshot := m.Usage(ctx)
	printUsage(cmd.OutOrStdout(), snapshot)
	if snapshot.Status == model.StorageError {
		return fmt.Errorf("failed to measure storage: %s", snapshot.Error)
	}
	return nil
}

func runStoragePlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	m, closeFn, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := m.Report(ctx, cfg.Storage.RetentionDays)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printUsage(out, report.Usage)
	printPlans(out, report.Plans)
	fmt.Fprintf(out, "\nEstimated savings: %s\n", datagen.FormatSize(report.TotalEstimatedSavings))
	for _, rec := range report.Recommendations {
		fmt.Fprintf(out, "Recommendation: %s\n", rec)
	}
	return nil
}

func runStorageArchive(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, closeFn, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	plans, err := m.Plan(ctx, cfg.Storage.RetentionDays)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printPlans(out, plans)

	var confirm storage.Confirmer = storage.AutoConfirm{}
	if storageInteractive {
		confirm = newPrompter(cmd.InOrStdin(), out)
	}
	report := m.Execute(ctx, plans, confirm)

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tSTATUS\tBATCHES\tARCHIVED\tDELETED\tERROR")
	for _, r := range report.Results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.Table, r.Status, r.Batches, r.Archived, r.Deleted, errText)
	}
	w.Flush()

	if !report.OK() {
		return fmt.Errorf("archiving failed for %d tables", len(report.Failed()))
	}
	return nil
}

func printUsage(out io.Writer, s model.StorageUsageSnapshot) {
	fmt.Fprintf(out, "Storage: %s\n", s.Status)
	if s.Status == model.StorageError {
		fmt.Fprintf(out, "Error: %s\n", s.Error)
		return
	}
	fmt.Fprintf(out, "Used: %s of %s (%.1f%%)\n",
		datagen.FormatSize(s.TotalStorageBytes), datagen.FormatSize(s.QuotaBytes), s.UsagePercentage)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TABLE\tSIZE\tROWS\tCREATED")
	for _, t := range s.Tables {
		created := "-"
		if !t.Created.IsZero() {
			created = t.Created.Format(model.DateLayout)
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", t.TableID, datagen.FormatSize(t.StorageBytes), t.RowCount, created)
	}
	w.Flush()
}

func printPlans(out io.Writer, plans []model.ArchivingPlan) {
	fmt.Fprintln(out, "\nArchiving plan:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TABLE\tOLD ROWS\tOLDEST\tNEWEST\tCUTOFF\tEST. SAVED")
	for _, p := range plans {
		if p.Err != nil {
			fmt.Fprintf(w, "  %s\terror: %v\t\t\t\t\n", p.Table, p.Err)
			continue
		}
		oldest, newest := "-", "-"
		if p.OldRecordCount > 0 {
			oldest = p.OldestDate.Format(model.DateLayout)
			newest = p.NewestDate.Format(model.DateLayout)
		}
		fmt.Fprintf(w, "  %s\t%d\t%s\t%s\t%s\t%s\n", p.Table, p.OldRecordCount, oldest, newest,
			p.CutoffDate.Format(model.DateLayout), datagen.FormatSize(p.EstimatedStorageSaved))
	}
	w.Flush()
}
