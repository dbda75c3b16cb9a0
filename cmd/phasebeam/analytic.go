package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phasebeam/phasebeam/backend/cpu"
	"github.com/phasebeam/phasebeam/beam"
)

var (
	analyticRequest string
	analyticVariant string
	analyticHeight  float64
)

var analyticCmd = &cobra.Command{
	Use:   "analytic",
	Short: "Compute closed-form responses for a YAML batch request",
	RunE:  runAnalytic,
}

func init() {
	analyticCmd.Flags().StringVarP(&analyticRequest, "request", "r", "", "YAML request file")
	analyticCmd.Flags().StringVar(&analyticVariant, "variant", "mwa_pb", "element pattern: mwa_pb or rts")
	analyticCmd.Flags().Float64Var(&analyticHeight, "height", 0, "dipole height in metres (0 = variant default)")
	_ = analyticCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(analyticCmd)
}

func runAnalytic(cmd *cobra.Command, args []string) error {
	req, err := loadRequest(analyticRequest)
	if err != nil {
		return err
	}

	var variant beam.Variant
	switch analyticVariant {
	case "mwa_pb":
		variant = beam.MwaPb
	case "rts":
		variant = beam.RTS
	default:
		return fmt.Errorf("unknown variant %q (want mwa_pb or rts)", analyticVariant)
	}
	var height *float64
	if analyticHeight > 0 {
		height = &analyticHeight
	}
	b, err := beam.NewAnalytic(variant, height)
	if err != nil {
		return err
	}

	configs, err := req.configs()
	if err != nil {
		return err
	}
	res, err := beam.CalcJonesAnalyticBatch[float64](b, req.directions(), req.FreqsHz, configs, req.options(), cpu.New())
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}
	printBatch(req, res)
	return nil
}
