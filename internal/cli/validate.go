package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"powersim/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Check a scenario file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ok: R=%d family=%s target=%s prob_mass=%g criterion=%s\n",
			spec.Replications, spec.DataGen.Family, spec.TargetCoefficient,
			spec.ProbMass, spec.Criterion.Kind)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
