package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reboottrack/eventlog/sqlitelog"
	"reboottrack/printer"
)

// CrashloopCmd summarizes reboot history from an event database and
// reports whether the device is currently in a crash loop. The threshold
// is reporting policy only; no recovery action is taken here.
func CrashloopCmd() *cobra.Command {
	var (
		dbPath    string
		threshold int64
	)

	cmd := &cobra.Command{
		Use:   "crashloop",
		Short: "Report crash-loop status from collected events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlitelog.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sum, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !sum.HasEvents {
				fmt.Fprintln(out, "no events")
				return nil
			}

			fmt.Fprintf(out, "boots:            %d\n", sum.TotalBoots)
			fmt.Fprintf(out, "unexpected:       %d\n", sum.UnexpectedBoots)
			fmt.Fprintf(out, "current streak:   %d\n", sum.CurrentStreak)
			fmt.Fprintf(out, "last reason:      %s\n", printer.ReasonString(sum.LastReason))
			fmt.Fprintf(out, "last crash_count: %d\n", sum.LastCrashCount)
			if sum.CurrentStreak >= threshold {
				fmt.Fprintf(out, "crash loop: %d consecutive unexpected reboots (threshold %d)\n",
					sum.CurrentStreak, threshold)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite event database")
	cmd.Flags().Int64Var(&threshold, "threshold", 3, "consecutive unexpected reboots that count as a loop")
	cmd.MarkFlagRequired("db")
	return cmd
}
