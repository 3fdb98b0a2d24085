package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPollCommand(ctx *commandContext) *cobra.Command {
	var (
		year int
		day  string
	)

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Reconcile the SPC daily feed for the configured years",
		Long: "Walks every day of POLL_FIRST_YEAR through POLL_LAST_YEAR up to two days ago, " +
			"downloading new reports and revalidating recent tornado days.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if year != 0 && day != "" {
				return errors.New("--year and --day are mutually exclusive")
			}
			var target time.Time
			if day != "" {
				var err error
				if target, err = time.Parse(time.DateOnly, day); err != nil {
					return fmt.Errorf("invalid --day %q: want YYYY-MM-DD", day)
				}
			}

			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			driver, err := a.pollDriver(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case day != "":
				done, err := driver.RunDay(cmd.Context(), target)
				if err != nil {
					return err
				}
				if !done {
					fmt.Fprintf(out, "%s already reconciled\n", day)
					return nil
				}
				fmt.Fprintf(out, "%s reconciled\n", day)
			case year != 0:
				n, err := driver.RunYear(cmd.Context(), year)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d: %d days summarized\n", year, n)
			default:
				return driver.RunYears(cmd.Context(), a.cfg.PollFirstYear, a.cfg.PollLastYear)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Poll a single year")
	cmd.Flags().StringVar(&day, "day", "", "Poll a single weather day (YYYY-MM-DD), ignoring POLL_START_YEAR")
	return cmd
}
