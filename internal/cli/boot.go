package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reboottrack/common"
	"reboottrack/eventlog/sqlitelog"
	"reboottrack/platform"
	"reboottrack/printer"
	"reboottrack/tracker"
)

// BootCmd replays a device boot against a region image: reconcile the
// prior session's evidence, print the decision, re-arm the image and
// optionally collect the reboot event into a SQLite event database.
func BootCmd() *cobra.Command {
	var (
		platformPath string
		resetRegStr  string
		reasonName   string
		dbPath       string
		create       bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "boot <region-image>",
		Short: "Run a boot reconciliation against a region image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := loadRegion(args[0], create)
			if err != nil {
				return err
			}

			eng := tracker.New()
			if verbose {
				eng.Log = common.NewStdLoggerWithWriter(cmd.OutOrStdout(), cmd.ErrOrStderr(), common.SeverityDebug)
			}
			if platformPath != "" {
				cfg, err := platform.Load(platformPath)
				if err != nil {
					return err
				}
				eng.Mapper = cfg.Mapper()
			}

			info := &tracker.BootupInfo{}
			if resetRegStr != "" {
				if info.ResetReasonReg, err = parseUint32(resetRegStr); err != nil {
					return err
				}
			}
			if reasonName != "" {
				code, ok := common.ReasonByName(reasonName)
				if !ok {
					return fmt.Errorf("unknown reason %q", reasonName)
				}
				info.ResetReason = code
			}

			if err := eng.Boot(buf, info); err != nil {
				return err
			}
			decision, err := eng.Decision()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), printer.FormatDecision(decision))

			if dbPath != "" {
				store, err := sqlitelog.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				collected, err := eng.Collect(store)
				if err != nil {
					return err
				}
				if collected {
					fmt.Fprintln(cmd.OutOrStdout(), "event collected")
				}
			}

			return saveRegion(args[0], buf)
		},
	}

	cmd.Flags().StringVar(&platformPath, "platform", "", "platform descriptor YAML mapping reset-register bits to reasons")
	cmd.Flags().StringVar(&resetRegStr, "reset-reg", "", "raw reset-reason register value (decimal or 0x hex)")
	cmd.Flags().StringVar(&reasonName, "reason", "", "pre-resolved reboot reason from an earlier boot stage")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite event database to collect the reboot event into")
	cmd.Flags().BoolVar(&create, "create", false, "create the region image if missing (filled with 0xFF)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log reconciliation details")
	return cmd
}
