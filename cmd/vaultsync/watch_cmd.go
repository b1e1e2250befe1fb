package main

import (
	"errors"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	vsync "github.com/vaultsync/vaultsync/internal/sync"
	"github.com/vaultsync/vaultsync/internal/version"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	var skipInitial bool

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and sync changes as they settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := configFromViper()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, appOptions{lock: true})
			if err != nil {
				return err
			}
			defer a.close()

			color.New(color.FgHiCyan, color.Bold).Printf("%s\n", version.ShortWithApp())
			slog.Info("watching vault", "dir", a.vault.Root, "store", cfg.ServerURL, "db", cfg.Database)

			if !a.client.Ping(cmd.Context()) {
				return errors.New("document store is not reachable")
			}

			if !skipInitial {
				slog.Info("running initial sync")
				result, err := a.engine.SyncDirectory(cmd.Context(), "")
				if err != nil {
					return err
				}
				for _, pathErr := range result.Errors {
					slog.Error("initial sync failed", "path", pathErr.Path, "error", pathErr.Err)
				}
			}

			watcher := vsync.NewWatcher(a.engine, a.vault, a.filter, a.ignore, cfg.Debounce)
			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}

			<-cmd.Context().Done()

			watcher.Close()
			defer slog.Info("Bye!")
			return nil
		},
	}

	watchCmd.Flags().BoolVar(&skipInitial, "skip-initial-sync", false, "do not run a full sync before watching")

	return watchCmd
}
