package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reboottrack/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rebootctl",
		Short: "Inspect and replay reboot-tracking persistent regions",
		Long: `rebootctl works with images of the 64-byte reboot-tracking region:
decode them, replay boot reconciliations against them, inject faults,
and query the reboot history collected into an event database.`,
	}

	rootCmd.AddCommand(cli.InspectCmd())
	rootCmd.AddCommand(cli.BootCmd())
	rootCmd.AddCommand(cli.FaultCmd())
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.CrashloopCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
