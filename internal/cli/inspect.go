package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reboottrack/printer"
	"reboottrack/region"
)

// InspectCmd decodes a region image and prints its contents without
// modifying it.
func InspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <region-image>",
		Short: "Decode and print a persistent region image",
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
			fmt.Fprint(cmd.OutOrStdout(), printer.FormatRecord(rec))
			return nil
		},
	}
}
