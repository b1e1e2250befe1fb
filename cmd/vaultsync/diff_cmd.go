package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDiffCmd())
}

func newDiffCmd() *cobra.Command {
	var dryRun bool

	diffCmd := &cobra.Command{
		Use:   "diff <comparison-range>",
		Short: "Sync the paths changed between two version-control revisions",
		Long:  "Classifies paths from `git diff --name-status <range>`: added/modified paths sync, removed paths are deleted from the store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := configFromViper()
			if err != nil {
				return err
			}
			cfg.DryRun = dryRun

			a, err := newApp(cfg, appOptions{dryRun: dryRun, lock: !dryRun})
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.engine.SyncFromRevisionDiff(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return reportResult(result)
		},
	}

	diffCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "preview without any store mutation")

	return diffCmd
}
