package main

import (
	"fmt"

	"github.com/phasebeam/phasebeam/backend/webgpu"
	"github.com/phasebeam/phasebeam/beam"
)

// runCalcGPU runs the same batch on the WebGPU engine and prints through the
// host-resident maps.
func runCalcGPU(req *request, b *beam.FEE, configs []beam.Config) error {
	if !webgpu.IsAvailable() {
		return fmt.Errorf("no WebGPU adapter available")
	}
	dev, err := webgpu.New()
	if err != nil {
		return err
	}
	defer dev.Release()

	g, err := webgpu.NewFEEBeam(dev, b, req.FreqsHz, configs, webgpu.Double, req.options())
	if err != nil {
		return err
	}
	defer g.Release()

	dirs := req.directions()
	js, err := webgpu.CalcJonesHost[float64](g, dirs)
	if err != nil {
		return err
	}

	tileMap, freqMap := g.TileMap(), g.FreqMap()
	nd := len(dirs)
	for t := range configs {
		for f, freq := range req.FreqsHz {
			block := (int(tileMap[t])*g.NumUniqueFreqs() + int(freqMap[f])) * nd
			for d := 0; d < nd; d++ {
				j := js[block+d]
				fmt.Printf("tile %d freq %d dir %d: ", t, freq, d)
				for e := 0; e < 4; e++ {
					fmt.Printf("(%+.6e%+.6ei) ", j[e].Re, j[e].Im)
				}
				fmt.Println()
			}
		}
	}
	return nil
}
