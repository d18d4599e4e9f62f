package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"powersim/adapters/datagen"
	"powersim/internal/profiling"
	"powersim/internal/scenario"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <scenario.yaml>",
	Short: "Generate one dataset from a scenario and print its summary statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		seedIndex, _ := cmd.Flags().GetInt("replication")
		if seedIndex < 1 || seedIndex > spec.Replications {
			seedIndex = 1
		}

		ds, err := datagen.NewGenerator().Generate(spec.DataGen, spec.Seeds.SeedFor(seedIndex))
		if err != nil {
			return err
		}
		profile, err := profiling.Profile(ds)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	inspectCmd.Flags().Int("replication", 1, "Replication index whose seed is used")
	rootCmd.AddCommand(inspectCmd)
}
