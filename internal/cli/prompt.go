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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pgEdge/pgedge-reconcile/internal/model"
)

// previewLimit is the number of adjustments shown before confirmation.
const previewLimit = 5

// prompter asks yes/no questions on a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask returns true only for an explicit "y" or "yes". End of input counts
// as no.
func (p *prompter) ask(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// confirmAdjustments previews the first adjustments and asks whether to
// apply them all.
func (p *prompter) confirmAdjustments(adjustments []model.AdjustmentRecord) (bool, error) {
	fmt.Fprintf(p.out, "\n%d inventory adjustments proposed:\n", len(adjustments))
	for _, a := range adjustments[:min(previewLimit, len(adjustments))] {
		fmt.Fprintf(p.out, "  %s  %s  %s  %d -> %d (%.2f%%)\n",
			a.AdjustmentID, a.Date.Format(model.DateLayout), a.AdjustmentType,
			a.OriginalStockSold, a.AdjustedStockSold, a.VariancePercentage)
	}
	if len(adjustments) > previewLimit {
		fmt.Fprintf(p.out, "  ... and %d more\n", len(adjustments)-previewLimit)
	}
	return p.ask("Apply these adjustments?")
}

// ConfirmTable implements storage.Confirmer.
func (p *prompter) ConfirmTable(plan model.ArchivingPlan) (bool, error) {
	fmt.Fprintf(p.out, "\n%s: %d rows from %s to %s -> %s\n",
		plan.Table, plan.OldRecordCount,
		plan.OldestDate.Format(model.DateLayout), plan.NewestDate.Format(model.DateLayout),
		plan.ArchiveTable)
	return p.ask(fmt.Sprintf("Archive %s?", plan.Table))
}
