package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultsync/vaultsync/internal/store"
)

func init() {
	rootCmd.AddCommand(newProvisionCmd())
}

func newProvisionCmd() *cobra.Command {
	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the store database if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := configFromViper()
			if err != nil {
				return err
			}

			client, err := store.NewClient(&store.Options{
				BaseURL:  cfg.ServerURL,
				Database: cfg.Database,
				Username: cfg.Username,
				Password: cfg.Password,
			})
			if err != nil {
				return err
			}

			if !client.Ping(cmd.Context()) {
				return errors.New("document store is not reachable")
			}
			if err := client.Provision(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("database %q ready on %s\n", cfg.Database, cfg.ServerURL)
			return nil
		},
	}

	return provisionCmd
}
