package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var freqsCoeffs string

var freqsCmd = &cobra.Command{
	Use:   "freqs",
	Short: "List the frequencies a coefficient model carries",
	RunE: func(cmd *cobra.Command, args []string) error {
		calcCoeffs = freqsCoeffs
		b, err := newFEEBeam()
		if err != nil {
			return err
		}
		for _, f := range b.Frequencies() {
			fmt.Println(f)
		}
		return nil
	},
}

func init() {
	freqsCmd.Flags().StringVarP(&freqsCoeffs, "coeffs", "c", "",
		"coefficient file (defaults to $MWA_BEAM_FILE)")
	rootCmd.AddCommand(freqsCmd)
}
