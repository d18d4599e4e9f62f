package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"powersim/adapters/datagen"
	"powersim/adapters/fitter"
	"powersim/adapters/postgres"
	"powersim/app"
	"powersim/internal/api"
	"powersim/internal/config"
	"powersim/ports"
)

// Standalone API server; `powersim serve` wraps the same surface.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.GinMode)

	var store ports.RunStore
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return err
		}
		if err := postgres.EnsureSchema(db); err != nil {
			return err
		}
		store = postgres.NewRunRepository(db)
	}

	service := app.NewPowerAnalysisService(datagen.NewGenerator(), fitter.NewAnalyticFitter(), store)
	server := api.NewServer(service, store)
	fmt.Printf("listening on :%s\n", cfg.Server.Port)
	return server.Router().Run(":" + cfg.Server.Port)
}
