package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newReadCmd())
}

func newReadCmd() *cobra.Command {
	readCmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Reassemble a path's content from the store and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := configFromViper()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			content, err := a.engine.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(content)
			return err
		},
	}

	return readCmd
}
