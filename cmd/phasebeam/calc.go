package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phasebeam/phasebeam/backend/cpu"
	"github.com/phasebeam/phasebeam/beam"
)

var (
	calcCoeffs  string
	calcRequest string
	calcGPU     bool
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute FEE responses for a YAML batch request",
	RunE:  runCalc,
}

func init() {
	calcCmd.Flags().StringVarP(&calcCoeffs, "coeffs", "c", "",
		"coefficient file (defaults to $"+beam.BeamFileEnv+")")
	calcCmd.Flags().StringVarP(&calcRequest, "request", "r", "", "YAML request file")
	calcCmd.Flags().BoolVar(&calcGPU, "gpu", false, "run on the WebGPU engine")
	_ = calcCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(calcCmd)
}

func newFEEBeam() (*beam.FEE, error) {
	if calcCoeffs != "" {
		return beam.NewFEE(calcCoeffs)
	}
	return beam.NewFEEFromEnv()
}

func runCalc(cmd *cobra.Command, args []string) error {
	req, err := loadRequest(calcRequest)
	if err != nil {
		return err
	}
	b, err := newFEEBeam()
	if err != nil {
		return err
	}
	configs, err := req.configs()
	if err != nil {
		return err
	}

	if calcGPU {
		return runCalcGPU(req, b, configs)
	}

	res, err := beam.CalcJonesBatch[float64](b, req.directions(), req.FreqsHz, configs, req.options(), cpu.New())
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}
	printBatch(req, res)
	return nil
}
