package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reboottrack/eventlog/sqlitelog"
	"reboottrack/printer"
)

// ExportCmd lists the reboot events accumulated in an event database,
// oldest first.
func ExportCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "List collected reboot events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlitelog.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.Events(cmd.Context())
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no events")
				return nil
			}
			for _, se := range events {
				fmt.Fprintln(cmd.OutOrStdout(), printer.FormatEventLine(se.ID, se.Event))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite event database")
	cmd.MarkFlagRequired("db")
	return cmd
}
