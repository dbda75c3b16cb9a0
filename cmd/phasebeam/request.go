package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phasebeam/phasebeam/beam"
)

// request is the YAML batch description shared by calc and analytic.
type request struct {
	Directions []struct {
		Az float64 `yaml:"az"`
		ZA float64 `yaml:"za"`
	} `yaml:"directions"`
	FreqsHz []uint32 `yaml:"freqs_hz"`
	Tiles   []struct {
		Delays []uint32  `yaml:"delays"`
		Amps   []float64 `yaml:"amps"`
	} `yaml:"tiles"`
	NormToZenith bool     `yaml:"norm_to_zenith"`
	LatitudeRad  *float64 `yaml:"latitude_rad"`
	IAUOrder     bool     `yaml:"iau_order"`
}

func loadRequest(path string) (*request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var req request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request %s: %w", path, err)
	}
	if len(req.Directions) == 0 || len(req.FreqsHz) == 0 || len(req.Tiles) == 0 {
		return nil, fmt.Errorf("request %s needs directions, freqs_hz and tiles", path)
	}
	return &req, nil
}

func (r *request) directions() []beam.Direction {
	dirs := make([]beam.Direction, len(r.Directions))
	for i, d := range r.Directions {
		dirs[i] = beam.Direction{AzRad: d.Az, ZARad: d.ZA}
	}
	return dirs
}

func (r *request) configs() ([]beam.Config, error) {
	configs := make([]beam.Config, len(r.Tiles))
	for i, t := range r.Tiles {
		if len(t.Delays) != beam.NumDipoles {
			return nil, fmt.Errorf("tile %d: got %d delays, want %d", i, len(t.Delays), beam.NumDipoles)
		}
		copy(configs[i].Delays[:], t.Delays)
		configs[i].Amps = t.Amps
	}
	return configs, nil
}

func (r *request) options() beam.Options {
	return beam.Options{
		NormToZenith: r.NormToZenith,
		Parallactic:  r.LatitudeRad != nil,
		LatitudeRad:  r.LatitudeRad,
		IAUOrder:     r.IAUOrder,
	}
}

// jonesBatch is what printBatch needs from either model's batch result.
type jonesBatch interface {
	At(tileIdx, freqIdx, dirIdx int) beam.Jones[float64]
}

// printBatch writes one line per (tile, freq, direction) triple.
func printBatch(req *request, res jonesBatch) {
	for t := range req.Tiles {
		for f, freq := range req.FreqsHz {
			for d := range req.Directions {
				j := res.At(t, f, d)
				fmt.Printf("tile %d freq %d dir %d: ", t, freq, d)
				for e := 0; e < 4; e++ {
					fmt.Printf("(%+.6e%+.6ei) ", j[e].Re, j[e].Im)
				}
				fmt.Println()
			}
		}
	}
}
