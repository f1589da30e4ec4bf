package main

import (
	"github.com/spf13/cobra"

	"github.com/menta2k/pano-probe/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the pano-probe HTTP API.

Endpoints:
  - GET  /             - status and backend availability
  - GET  /health       - per-service health
  - POST /api/analyze  - rate a location
  - GET  /api/catalog  - prompt catalog and weight table

Examples:
  pano-probe serve                  # Start on 0.0.0.0:8000
  pano-probe serve --port 9000      # Start on custom port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		prober, checks, err := buildProber(ctx, cfg, logger)
		if err != nil {
			return err
		}

		srv := server.New(prober, checks, cfg.Server, logger)
		return srv.Run(ctx, cfg.Addr())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
}
