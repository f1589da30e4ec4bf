package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/difficulty"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the prompt catalog and feature weights",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Catalog %s: %d prompts, base score %.1f\n\n", catalog.Version, catalog.Len(), difficulty.BaseScore)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FLAG\tWEIGHT\tTHRESHOLD\tPROMPT")
		for _, f := range difficulty.Table {
			fmt.Fprintf(w, "%s\t%+.1f\t%.2f\t%s\n", f.Flag, f.Weight, f.Threshold, f.Prompt)
		}
		_ = w.Flush()
	},
}
