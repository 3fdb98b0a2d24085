package main

import (
	"errors"

	"github.com/couchcryptid/storm-data-reconciler/internal/config"
	"github.com/spf13/cobra"
)

// errViolations marks a verify run that found inconsistent data.
var errViolations = errors.New("verification found violations")

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "stormrecon",
		Short:         "Reconcile SPC storm reports with the Storm Events archive",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv(".env", ".env.local")
			return ctx.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newPollCommand(ctx))
	rootCmd.AddCommand(newBackfillCommand(ctx))
	rootCmd.AddCommand(newDiscoverCommand(ctx))
	rootCmd.AddCommand(newInventoryCommand(ctx))
	rootCmd.AddCommand(newVerifyCommand(ctx))
	rootCmd.AddCommand(newLoadRadarsCommand(ctx))

	return rootCmd
}

func exitCode(err error) int {
	if errors.Is(err, errViolations) {
		return 2
	}
	return 1
}
