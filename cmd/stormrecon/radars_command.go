package main

import (
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/storm-data-reconciler/internal/radar"
	"github.com/spf13/cobra"
)

func newLoadRadarsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load-radars <station-list>",
		Short: "Replace the radar site table from an NCEI fixed-width station list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open station list: %w", err)
				}
				defer f.Close()
				r = f
			}

			sites, err := radar.ParseSites(r)
			if err != nil {
				return err
			}

			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ReplaceRadarSites(cmd.Context(), sites); err != nil {
				return err
			}
			primary := radar.NewLocator(sites).Len()
			fmt.Fprintf(cmd.OutOrStdout(), "%d radar sites loaded (%d primary)\n", len(sites), primary)
			return nil
		},
	}
}
