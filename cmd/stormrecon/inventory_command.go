package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/spf13/cobra"
)

type inventoryLister interface {
	ListFileInventory(ctx context.Context) ([]domain.FileInventory, error)
	ListPollInventory(ctx context.Context, year int) ([]domain.PollInventory, error)
}

func newInventoryCommand(ctx *commandContext) *cobra.Command {
	var pollYear int

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List archived Storm Events revisions, or SPC versions with --poll-year",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if pollYear != 0 {
				return printPollInventory(cmd.Context(), cmd.OutOrStdout(), a.store, pollYear)
			}
			return printFileInventory(cmd.Context(), cmd.OutOrStdout(), a.store)
		},
	}

	cmd.Flags().IntVar(&pollYear, "poll-year", 0, "List SPC feed versions for a year instead")
	return cmd
}

func printFileInventory(ctx context.Context, w io.Writer, store inventoryLister) error {
	files, err := store.ListFileInventory(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(w, "No archive revisions discovered")
		return nil
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			strconv.Itoa(f.Year),
			f.Revision,
			strconv.Itoa(f.RowCount),
			yesNo(f.IsActive),
			f.UpdatedAt.Format(time.DateTime),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Year", "Revision", "Rows", "Active", "Updated"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}

func printPollInventory(ctx context.Context, w io.Writer, store inventoryLister, year int) error {
	versions, err := store.ListPollInventory(ctx, year)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintf(w, "No SPC versions stored for %d\n", year)
		return nil
	}

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, []string{
			v.Date.Format(time.DateOnly),
			v.ID,
			strconv.Itoa(len(v.Rows)),
			yesNo(v.IsDailyDetailComplete),
			yesNo(v.IsDailySummaryComplete),
			yesNo(v.IsTornadoDay),
			v.UpdatedAt.Format(time.DateTime),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Day", "ETag", "Lines", "Details", "Summary", "Tornado", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))
	return nil
}
