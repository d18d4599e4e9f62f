package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"powersim/adapters/datagen"
	"powersim/adapters/fitter"
	"powersim/adapters/postgres"
	"powersim/app"
	"powersim/internal/config"
	"powersim/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var rootCmd = &cobra.Command{
	Use:   "powersim",
	Short: "Simulation-based power and precision analysis for Bayesian regression models",
	Long: `powersim estimates statistical power and interval precision by repeated
simulate-fit-summarize cycles: generate a synthetic dataset from a known
data-generating process, fit the declared model, extract a credible
interval for the target coefficient, and aggregate pass/fail statistics
across replications.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Missing .env is fine; environment variables win either way.
	_ = godotenv.Load()
}

// buildService wires the engine with its default collaborators, plus the
// Postgres store when DATABASE_URL is configured.
func buildService(cfg *config.Config) (*app.PowerAnalysisService, ports.RunStore, error) {
	var store ports.RunStore
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(db); err != nil {
			return nil, nil, err
		}
		store = postgres.NewRunRepository(db)
	}
	service := app.NewPowerAnalysisService(datagen.NewGenerator(), fitter.NewAnalyticFitter(), store)
	return service, store, nil
}
