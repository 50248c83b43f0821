// Command elbow sweeps K over a range on a sampled trip file and writes the
// WSS curve as a PNG plus a CSV, for picking K by the elbow heuristic.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/banshee-data/triphubs/internal/kmeans"
	"github.com/banshee-data/triphubs/internal/report"
	"github.com/banshee-data/triphubs/internal/sample"
	"github.com/banshee-data/triphubs/internal/trips"
)

var (
	input    = flag.String("input", "", "Input trip CSV")
	plotDir  = flag.String("plots", "plots", "Directory for the elbow PNG")
	outCSV   = flag.String("output", "", "CSV of (k, wss) pairs (optional)")
	kMin     = flag.Int("kmin", 2, "Smallest K to try")
	kMax     = flag.Int("kmax", 60, "Largest K to try")
	fraction = flag.Float64("fraction", 0.01, "Sample fraction in (0, 1]")
	seed     = flag.Int64("seed", 10, "Random seed")
)

func main() {
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: elbow -input trips.csv [-kmin 2] [-kmax 60]")
		os.Exit(2)
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()

	r, err := trips.NewReader(f)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	filter := trips.DefaultFilter()
	var kept []trips.Trip
	for {
		t, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read trips: %v", err)
		}
		if filter.Keep(&t) {
			kept = append(kept, t)
		}
	}
	log.Printf("filter: %s", filter.Summary())

	proj := trips.NewEquirectangular(trips.MeanPickupLat(kept))
	idx := sample.Fraction(len(kept), *fraction, *seed)
	pts := make([]kmeans.Point, 0, len(idx))
	for _, i := range idx {
		x, y := proj.Project(kept[i].PickupLng, kept[i].PickupLat)
		pts = append(pts, kmeans.Point{X: x, Y: y})
	}
	if len(pts) < *kMax {
		log.Fatalf("Sample of %d points too small for kmax=%d; raise the fraction", len(pts), *kMax)
	}

	sweep, err := kmeans.Sweep(pts, *kMin, *kMax, kmeans.Config{Seed: *seed})
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	for _, s := range sweep {
		fmt.Printf("k=%2d wss=%.1f\n", s.K, s.TotalWSS)
	}

	rend := report.NewRenderer(*plotDir)
	if err := rend.ElbowCurve(sweep, "elbow.png"); err != nil {
		log.Fatalf("Failed to render elbow plot: %v", err)
	}

	if *outCSV != "" {
		if err := writeSweepCSV(*outCSV, sweep); err != nil {
			log.Fatalf("Failed to write sweep CSV: %v", err)
		}
	}
}

func writeSweepCSV(path string, sweep []kmeans.SweepPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"k", "total_wss"}); err != nil {
		return err
	}
	for _, s := range sweep {
		rec := []string{strconv.Itoa(s.K), strconv.FormatFloat(s.TotalWSS, 'f', -1, 64)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
