package main

import (
	"fmt"

	"github.com/spf13/cobra"

	vsync "github.com/vaultsync/vaultsync/internal/sync"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	var withDelete bool
	var dryRun bool
	var force bool

	syncCmd := &cobra.Command{
		Use:   "sync [paths...]",
		Short: "Sync the given paths (or the whole vault) into the store",
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

			var result *vsync.Result
			if len(args) == 0 {
				result, err = a.engine.SyncDirectory(cmd.Context(), "")
				if err != nil {
					return err
				}
			} else {
				result = a.engine.SyncPaths(cmd.Context(), args, vsync.SyncOptions{
					Delete: withDelete,
					Force:  force,
				})
			}

			return reportResult(result)
		},
	}

	syncCmd.Flags().BoolVar(&withDelete, "delete", false, "delete remote records for paths absent on disk")
	syncCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "preview without any store mutation")
	syncCmd.Flags().BoolVarP(&force, "force", "f", false, "push even when the journal says content is unchanged")

	return syncCmd
}

func reportResult(result *vsync.Result) error {
	fmt.Printf("synced %d, deleted %d, failed %d\n",
		len(result.Synced), len(result.Deleted), len(result.Errors))

	for _, pathErr := range result.Errors {
		fmt.Printf("  %s: %v\n", pathErr.Path, pathErr.Err)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d path(s) failed", len(result.Errors))
	}
	return nil
}
