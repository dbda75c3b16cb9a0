// Package main provides the phasebeam CLI: beam responses from the command
// line for quick checks and pipeline glue.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:          "phasebeam",
	Short:        "Phased-array beam response calculator",
	SilenceUsage: true,
	Long: `phasebeam computes polarimetric tile responses (Jones matrices) for a
phased-array radio telescope, either from a spherical-harmonic coefficient
model (calc) or from the closed-form dipole model (analytic).`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("phasebeam %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
