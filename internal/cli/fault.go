package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reboottrack/common"
	"reboottrack/printer"
	"reboottrack/region"
)

// FaultCmd injects a fault into a region image, the way a running device
// would on its way down: the first recorded reason wins, later injections
// against the same image are no-ops until the next boot re-arms it.
func FaultCmd() *cobra.Command {
	var (
		reasonName string
		pcStr      string
		lrStr      string
	)

	cmd := &cobra.Command{
		Use:   "fault <region-image>",
		Short: "Record an imminent-reset reason in a region image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := loadRegion(args[0], false)
			if err != nil {
				return err
			}
			rec, err := region.Decode(buf)
			if err != nil {
				return err
			}

			if rec.StoredReason != common.ReasonNotSet {
				fmt.Fprintf(cmd.OutOrStdout(), "already recorded %s, keeping it\n",
					printer.ReasonString(rec.StoredReason))
				return nil
			}

			reason := common.ReasonUnknownError
			if reasonName != "" {
				code, ok := common.ReasonByName(reasonName)
				if !ok {
					return fmt.Errorf("unknown reason %q", reasonName)
				}
				reason = code
			}
			rec.StoredReason = reason
			if pcStr != "" {
				if rec.Regs.PC, err = parseUint32(pcStr); err != nil {
					return err
				}
			}
			if lrStr != "" {
				if rec.Regs.LR, err = parseUint32(lrStr); err != nil {
					return err
				}
			}

			if err := region.Encode(rec, buf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s %s\n",
				printer.ReasonString(reason), rec.Regs)
			return saveRegion(args[0], buf)
		},
	}

	cmd.Flags().StringVar(&reasonName, "reason", "", "reboot reason name (default UnknownError)")
	cmd.Flags().StringVar(&pcStr, "pc", "", "program counter at the fault")
	cmd.Flags().StringVar(&lrStr, "lr", "", "link register at the fault")
	return cmd
}
