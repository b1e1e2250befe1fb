package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last pushed state of every path in the journal",
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

			if a.journal == nil {
				return errors.New("journal unavailable")
			}

			entries, err := a.journal.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("nothing pushed yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tSIZE\tSYNCED\tREVISION")
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					entry.Path,
					humanize.Bytes(uint64(entry.Size)),
					humanize.Time(entry.SyncedAt),
					entry.Revision,
				)
			}
			return w.Flush()
		},
	}

	return statusCmd
}
