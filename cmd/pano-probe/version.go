package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	panoprobe "github.com/menta2k/pano-probe"
	"github.com/menta2k/pano-probe/pkg/catalog"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pano-probe %s\n", panoprobe.Version)
		fmt.Printf("  Go:      %s\n", runtime.Version())
		fmt.Printf("  Catalog: %s (%d prompts)\n", catalog.Version, catalog.Len())
	},
}
