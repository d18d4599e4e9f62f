package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"powersim/adapters/excel"
	"powersim/internal/config"
	"powersim/internal/render"
	"powersim/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Execute a power-analysis scenario and print its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := scenario.Load(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if spec.Parallelism == 0 {
			spec.Parallelism = cfg.Engine.DefaultParallelism
		}

		service, _, err := buildService(cfg)
		if err != nil {
			return err
		}

		// Ctrl+C stops issuing new replications; results so far are kept.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		record, err := service.Execute(ctx, spec)
		if err != nil {
			return err
		}

		fmt.Print(render.ReportMarkdown(record))

		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := excel.NewReportExporter().Export(record, path); err != nil {
				return err
			}
			fmt.Printf("\nWorkbook written to %s\n", path)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("xlsx", "", "Also export the run to an xlsx workbook at this path")
	rootCmd.AddCommand(runCmd)
}
