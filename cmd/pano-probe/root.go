package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	panoprobe "github.com/menta2k/pano-probe"
	"github.com/menta2k/pano-probe/internal/config"
	"github.com/menta2k/pano-probe/internal/utils"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "pano-probe",
	Short: "Estimate how hard a Street View location is to guess",
	Long: `pano-probe rates Street View locations on a 1 (easy) to 5 (hard) scale.

For each location it:
  - looks up the nearest panorama and stitches its tiles
  - cuts directional views and scores them against a prompt catalog
  - turns the scores into a difficulty rating with readable insights
  - optionally refines the rating with OCR`,
	Version:       panoprobe.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.{json,yaml} or ~/.config/pano-probe/config.json)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level override: debug, info, warn, error",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration and builds the logger it describes
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format), nil
}
