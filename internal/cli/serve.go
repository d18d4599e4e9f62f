package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"powersim/internal/api"
	"powersim/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for submitting runs and fetching reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		gin.SetMode(cfg.Server.GinMode)

		service, store, err := buildService(cfg)
		if err != nil {
			return err
		}

		server := api.NewServer(service, store)
		fmt.Printf("listening on :%s\n", cfg.Server.Port)
		return server.Router().Run(":" + cfg.Server.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
