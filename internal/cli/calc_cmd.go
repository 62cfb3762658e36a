package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
)

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "calc BED WAKE",
		Short:   "Print hours slept between two HH:MM times",
		Example: "  sleeplog calc 23:30 07:00",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				if _, err := sleepcalc.ParseTimeOfDay(a); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sh\n", sleepcalc.ComputeDurationHours(args[0], args[1]))
			return nil
		},
	}
}
