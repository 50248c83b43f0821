// Command cluster runs the hub analysis pipeline over a trip CSV: filter,
// sample, k-means on the sample, then k-means on the full data warm-started
// from the sample centroids. Optionally writes a labeled CSV, scatter plots,
// and a run record into the sqlite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/triphubs/internal/config"
	"github.com/banshee-data/triphubs/internal/db"
	"github.com/banshee-data/triphubs/internal/pipeline"
	"github.com/banshee-data/triphubs/internal/trips"
)

var (
	input         = flag.String("input", "", "Input trip CSV (local path or http(s) URL)")
	output        = flag.String("output", "", "Labeled output CSV (optional)")
	plotDir       = flag.String("plots", "", "Directory for scatter PNGs (optional)")
	configPath    = flag.String("config", "", "Tuning config JSON (optional)")
	dbFile        = flag.String("db", "", "Sqlite database to record the run into (optional)")
	migrationsDir = flag.String("migrations", "migrations", "Path to the migrations directory")

	k         = flag.Int("k", 0, "Number of clusters (0 = config default)")
	fraction  = flag.Float64("fraction", 0, "Sample fraction in (0, 1] (0 = config default)")
	seed      = flag.Int64("seed", -1, "Random seed (-1 = config default)")
	iters     = flag.Int("iterations", 0, "Max k-means iterations (0 = config default)")
	tolerance = flag.Float64("tolerance", -1, "Relative WSS convergence tolerance (-1 = config default)")
)

func main() {
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: cluster -input trips.csv [-output labeled.csv] [-plots dir] [-db triphubs.db]")
		os.Exit(2)
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	opts := pipeline.Options{
		Input:          *input,
		OutputCSV:      *output,
		PlotDir:        *plotDir,
		K:              tuning.GetClusters(),
		SampleFraction: tuning.GetSampleFraction(),
		Seed:           tuning.GetSeed(),
		MaxIterations:  tuning.GetMaxIterations(),
		Tolerance:      tuning.GetTolerance(),
		Filter:         filterFromConfig(tuning),
	}
	if *k > 0 {
		opts.K = *k
	}
	if *fraction > 0 {
		opts.SampleFraction = *fraction
	}
	if *seed >= 0 {
		opts.Seed = *seed
	}
	if *iters > 0 {
		opts.MaxIterations = *iters
	}
	if *tolerance >= 0 {
		opts.Tolerance = *tolerance
	}

	if *dbFile != "" {
		database, err := db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()
		if err := database.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		opts.Store = database
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	sum, err := pipeline.Run(ctx, opts)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	fmt.Printf("rows: %d read, %d bad, %d kept\n", sum.RowsTotal, sum.RowsBad, sum.RowsKept)
	fmt.Printf("sample: n=%d, %d iterations, wss=%.1f, %v\n",
		sum.SampleSize, sum.Sample.Iterations, sum.Sample.TotalWSS, sum.SampleDuration)
	fmt.Printf("full:   n=%d, %d iterations, wss=%.1f, %v\n",
		sum.RowsKept, sum.Full.Iterations, sum.Full.TotalWSS, sum.FullDuration)
	for _, c := range sum.Centroids {
		fmt.Printf("hub %2d: lng=%.5f lat=%.5f trips=%d wss=%.1f\n",
			c.Cluster, c.Lng, c.Lat, c.Size, c.WSS)
	}
	if sum.RunID != "" {
		fmt.Printf("recorded run %s\n", sum.RunID)
	}
	fmt.Printf("total %v\n", time.Since(start))
}

// filterFromConfig builds the trip filter from tuning values.
func filterFromConfig(tuning *config.TuningConfig) *trips.Filter {
	f := trips.DefaultFilter()
	f.Bounds = trips.BoundingBox{
		MinLng: tuning.GetMinLng(),
		MaxLng: tuning.GetMaxLng(),
		MinLat: tuning.GetMinLat(),
		MaxLat: tuning.GetMaxLat(),
	}
	f.MinPassengers = tuning.GetMinPassengers()
	f.MaxPassengers = tuning.GetMaxPassengers()
	f.MaxDistance = tuning.GetMaxDistance()
	f.MaxFare = tuning.GetMaxFare()
	f.MaxDuration = tuning.GetMaxDuration()
	return f
}
