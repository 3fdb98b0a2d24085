package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var (
		once     bool
		year     int
		revision string
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Promote Storm Events archive data over preliminary summaries",
		Long: "Discovers new yearly archive revisions, then processes the newest revision of each year " +
			"in batches of days until none has work left. --once stops after one batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (year == 0) != (revision == "") {
				return errors.New("--year and --revision must be given together")
			}

			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			driver, err := a.bulkDriver(cmd.Context())
			if err != nil {
				return err
			}
			if year != 0 {
				return driver.RunRevision(cmd.Context(), year, revision, once)
			}
			return driver.Run(cmd.Context(), once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Process a single batch of days and exit")
	cmd.Flags().IntVar(&year, "year", 0, "Replay one archive year (requires --revision)")
	cmd.Flags().StringVar(&revision, "revision", "", "Archive revision stamp, e.g. 20250520")
	return cmd
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Archive new Storm Events revisions without processing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.backfiller(cmd.Context())
			if err != nil {
				return err
			}
			n, err := b.Discover(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d new revisions archived\n", n)
			return nil
		},
	}
}
