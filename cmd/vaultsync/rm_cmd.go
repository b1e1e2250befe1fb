package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRmCmd())
}

func newRmCmd() *cobra.Command {
	var dryRun bool

	rmCmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a path's record from the store",
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

			deleted, err := a.engine.DeleteFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if deleted {
				fmt.Printf("deleted %s\n", args[0])
			} else {
				fmt.Printf("%s not present in store\n", args[0])
			}
			return nil
		},
	}

	rmCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "preview without any store mutation")

	return rmCmd
}
