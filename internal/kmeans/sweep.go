package kmeans

import "fmt"

// SweepPoint is one elbow-curve sample: total WSS at a given K.
type SweepPoint struct {
	K        int     `json:"k"`
	TotalWSS float64 `json:"total_wss"`
}

// Sweep runs k-means for each K in [kMin, kMax] and collects the total WSS
// per K. The curve's "elbow" is the usual heuristic for picking K: past it,
// extra clusters stop buying much WSS reduction.
//
// cfg.K and cfg.InitialCentroids are ignored; everything else (seed,
// iteration bound, tolerance) applies to every run.
func Sweep(pts []Point, kMin, kMax int, cfg Config) ([]SweepPoint, error) {
	if kMin <= 0 || kMax < kMin {
		return nil, fmt.Errorf("kmeans: invalid sweep range [%d, %d]", kMin, kMax)
	}

	out := make([]SweepPoint, 0, kMax-kMin+1)
	for k := kMin; k <= kMax; k++ {
		runCfg := cfg
		runCfg.K = k
		runCfg.InitialCentroids = nil

		res, err := Run(pts, runCfg)
		if err != nil {
			return out, fmt.Errorf("sweep k=%d: %w", k, err)
		}
		out = append(out, SweepPoint{K: k, TotalWSS: res.TotalWSS})
	}
	return out, nil
}
