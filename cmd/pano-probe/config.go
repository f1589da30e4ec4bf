package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/pano-probe/internal/config"
)

var writeConfig string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration or write the defaults",
	Long: `Print the configuration after defaults, config file and environment are
applied. API keys are masked.

Examples:
  pano-probe config                       # Show effective config
  pano-probe config --write ./config.json # Write defaults to a file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeConfig != "" {
			if err := config.Default().SaveToFile(writeConfig); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", writeConfig)
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.StreetView.APIKey != "" {
			cfg.StreetView.APIKey = "********"
		}
		js, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(js))
		return nil
	},
}

func init() {
	configCmd.Flags().StringVar(&writeConfig, "write", "", "write the default configuration to this path")
}
