package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/archive"
	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/spf13/cobra"
)

// verifyStore is the read surface the integrity checks need.
type verifyStore interface {
	ListDailySummariesForYear(ctx context.Context, year int) ([]domain.DailySummary, error)
	CountDailyDetails(ctx context.Context, day time.Time, sourceID string) (int, error)
	ListFileInventory(ctx context.Context) ([]domain.FileInventory, error)
}

// phase tracks pass/fail for one group of checks.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every summarized day has exactly one consistent current summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			first, last := min(a.cfg.BackfillMinYear, a.cfg.PollFirstYear), a.cfg.PollLastYear
			if year != 0 {
				first, last = year, year
			}

			bucket, err := archive.NewDirStore(a.cfg.ArchiveDir(), "")
			if err != nil {
				return err
			}
			keys, err := bucket.List(archive.BronzePrefix)
			if err != nil {
				return err
			}

			phases, err := runVerify(cmd.Context(), a.store, keys, first, last)
			if err != nil {
				return err
			}
			if !reportPhases(cmd.OutOrStdout(), phases) {
				return errViolations
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Verify a single year")
	return cmd
}

// runVerify checks the years in [first, last]. archived lists the object
// keys present in the archive bucket.
func runVerify(ctx context.Context, store verifyStore, archived []string, first, last int) ([]*phase, error) {
	current := &phase{name: "one current summary per day"}
	details := &phase{name: "current summary matches its details"}
	files := &phase{name: "archive revisions stored"}

	for year := first; year <= last; year++ {
		summaries, err := store.ListDailySummariesForYear(ctx, year)
		if err != nil {
			return nil, err
		}
		if err := checkSummaries(ctx, store, summaries, current, details); err != nil {
			return nil, err
		}
	}

	inventory, err := store.ListFileInventory(ctx)
	if err != nil {
		return nil, err
	}
	checkFiles(inventory, archived, first, last, files)

	return []*phase{current, details, files}, nil
}

func checkSummaries(ctx context.Context, store verifyStore, summaries []domain.DailySummary, current, details *phase) error {
	byDay := make(map[time.Time][]domain.DailySummary)
	var days []time.Time
	for _, s := range summaries {
		if _, ok := byDay[s.Date]; !ok {
			days = append(days, s.Date)
		}
		byDay[s.Date] = append(byDay[s.Date], s)
	}

	for _, day := range days {
		var cur []domain.DailySummary
		for _, s := range byDay[day] {
			if s.IsCurrent {
				cur = append(cur, s)
			}
		}
		if len(cur) != 1 {
			current.errorf("%s: %d current summaries across %d sources", day.Format(time.DateOnly), len(cur), len(byDay[day]))
		}

		for _, s := range cur {
			n, err := store.CountDailyDetails(ctx, day, s.SourceID)
			if err != nil {
				return err
			}
			if n != s.RowCount {
				details.errorf("%s source %s: summary counts %d rows, %d details stored",
					day.Format(time.DateOnly), s.SourceID, s.RowCount, n)
			}
		}
	}
	return nil
}

func checkFiles(inventory []domain.FileInventory, archived []string, first, last int, p *phase) {
	present := make(map[string]bool, len(archived))
	for _, k := range archived {
		present[k] = true
	}

	for _, f := range inventory {
		if f.Year < first || f.Year > last {
			continue
		}
		if !present[f.Path] {
			p.errorf("%d revision %s: object %s missing", f.Year, f.Revision, f.Path)
		}
		if f.IsActive && f.RowCount == 0 {
			p.errorf("%d revision %s: active with no row count", f.Year, f.Revision)
		}
	}
}

// reportPhases prints a summary table and the violations of failed phases.
// It reports whether every phase passed.
func reportPhases(w io.Writer, phases []*phase) bool {
	allPassed := true
	rows := make([][]string, 0, len(phases))
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		rows = append(rows, []string{p.name, status, strconv.Itoa(len(p.errors))})
	}
	fmt.Fprintln(w, renderTable([]string{"Check", "Status", "Violations"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}
	return allPassed
}
