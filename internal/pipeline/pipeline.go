// Package pipeline orchestrates the hub analysis: load a trip file, filter
// it, cluster a random sample, then re-cluster the full data warm-started
// from the sample's centroids.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/triphubs/internal/db"
	"github.com/banshee-data/triphubs/internal/fsutil"
	"github.com/banshee-data/triphubs/internal/httputil"
	"github.com/banshee-data/triphubs/internal/kmeans"
	"github.com/banshee-data/triphubs/internal/monitoring"
	"github.com/banshee-data/triphubs/internal/report"
	"github.com/banshee-data/triphubs/internal/sample"
	"github.com/banshee-data/triphubs/internal/timeutil"
	"github.com/banshee-data/triphubs/internal/trips"
)

// Options configures one pipeline run. Input is required; everything else
// has a usable default.
type Options struct {
	// Input is a local CSV path or an http(s) URL to fetch.
	Input string

	// OutputCSV, when set, receives the filtered trips with a cluster column.
	OutputCSV string

	// PlotDir, when set, receives scatter PNGs for the sample and full runs.
	PlotDir string

	K              int
	SampleFraction float64
	Seed           int64
	MaxIterations  int
	Tolerance      float64

	// Filter defaults to trips.DefaultFilter.
	Filter *trips.Filter

	// Store, when non-nil, records the full run and its centroids.
	Store *db.DB

	// FS and HTTP are swappable for tests.
	FS    fsutil.FileSystem
	HTTP  httputil.HTTPClient
	Clock timeutil.Clock
}

// Summary reports what a run did.
type Summary struct {
	RunID string

	RowsTotal int // data rows read, including undecodable ones
	RowsBad   int
	RowsKept  int // rows that passed the filter

	SampleSize     int
	SampleDuration time.Duration
	FullDuration   time.Duration

	Sample *kmeans.Result
	Full   *kmeans.Result

	// Centroids are the full run's hubs converted back to lng/lat.
	Centroids []db.RunCentroid
}

func (o *Options) defaults() {
	if o.Filter == nil {
		o.Filter = trips.DefaultFilter()
	}
	if o.FS == nil {
		o.FS = fsutil.OSFileSystem{}
	}
	if o.HTTP == nil {
		o.HTTP = httputil.NewStandardClient(nil)
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.K <= 0 {
		o.K = 40
	}
	if o.SampleFraction <= 0 || o.SampleFraction > 1 {
		o.SampleFraction = 0.01
	}
}

// Run executes the pipeline.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	opts.defaults()
	if opts.Input == "" {
		return nil, fmt.Errorf("pipeline: no input file")
	}

	in, err := openInput(ctx, &opts)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r, err := trips.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	var kept []trips.Trip
	for {
		t, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline: read trips: %w", err)
		}
		if opts.Filter.Keep(&t) {
			kept = append(kept, t)
		}
	}
	monitoring.Logf("filter: %s (bad rows: %d)", opts.Filter.Summary(), r.BadRows())

	sum := &Summary{
		RowsTotal: r.Rows(),
		RowsBad:   r.BadRows(),
		RowsKept:  len(kept),
	}
	if len(kept) < opts.K {
		return nil, fmt.Errorf("pipeline: %d trips after filtering, need at least K=%d", len(kept), opts.K)
	}

	// Project pickups onto a metric plane about the mean latitude.
	proj := trips.NewEquirectangular(trips.MeanPickupLat(kept))
	pts := make([]kmeans.Point, len(kept))
	for i := range kept {
		x, y := proj.Project(kept[i].PickupLng, kept[i].PickupLat)
		pts[i] = kmeans.Point{X: x, Y: y}
	}

	// Phase one: cluster a small random sample.
	idx := sample.Fraction(len(pts), opts.SampleFraction, opts.Seed)
	samplePts := sample.Pick(pts, idx)
	sum.SampleSize = len(samplePts)
	if len(samplePts) < opts.K {
		return nil, fmt.Errorf("pipeline: sample of %d points too small for K=%d; raise the fraction", len(samplePts), opts.K)
	}

	cfg := kmeans.Config{
		K:             opts.K,
		MaxIterations: opts.MaxIterations,
		Tolerance:     opts.Tolerance,
		Seed:          opts.Seed,
	}

	start := opts.Clock.Now()
	sum.Sample, err = kmeans.Run(samplePts, cfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: sample clustering: %w", err)
	}
	sum.SampleDuration = opts.Clock.Since(start)
	monitoring.Logf("sample run: n=%d k=%d iterations=%d wss=%.1f in %v",
		len(samplePts), opts.K, sum.Sample.Iterations, sum.Sample.TotalWSS, sum.SampleDuration)

	// Phase two: full data, warm-started from the sample's centroids.
	cfg.InitialCentroids = sum.Sample.Points()
	start = opts.Clock.Now()
	sum.Full, err = kmeans.Run(pts, cfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: full clustering: %w", err)
	}
	sum.FullDuration = opts.Clock.Since(start)
	monitoring.Logf("full run: n=%d k=%d iterations=%d wss=%.1f in %v (%.1fx sample time)",
		len(pts), opts.K, sum.Full.Iterations, sum.Full.TotalWSS, sum.FullDuration,
		safeRatio(sum.FullDuration, sum.SampleDuration))

	// Convert centroids back to geographic coordinates.
	sum.Centroids = make([]db.RunCentroid, len(sum.Full.Centroids))
	for i, c := range sum.Full.Centroids {
		lng, lat := proj.Unproject(c.X, c.Y)
		sum.Centroids[i] = db.RunCentroid{
			Cluster: c.Cluster,
			Lng:     lng,
			Lat:     lat,
			Size:    c.Size,
			WSS:     c.WSS,
		}
	}

	if opts.OutputCSV != "" {
		if err := writeLabeled(&opts, kept, sum.Full.Labels); err != nil {
			return nil, err
		}
	}

	if opts.PlotDir != "" {
		rend := report.NewRenderer(opts.PlotDir)
		rend.FS = opts.FS
		if err := rend.ClusterScatter(pts, sum.Full.Labels, sum.Full.Centroids, "hubs_full.png"); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		samplLabels := sum.Sample.Labels
		if err := rend.ClusterScatter(samplePts, samplLabels, sum.Sample.Centroids, "hubs_sample.png"); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	if opts.Store != nil {
		run := &db.ClusterRun{
			Source:         opts.Input,
			RowsTotal:      sum.RowsTotal,
			RowsKept:       sum.RowsKept,
			RowsClustered:  len(pts),
			SampleFraction: opts.SampleFraction,
			Seed:           opts.Seed,
			K:              opts.K,
			Iterations:     sum.Full.Iterations,
			Converged:      sum.Full.Converged,
			WarmStart:      true,
			TotalWSS:       sum.Full.TotalWSS,
			DurationMs:     sum.FullDuration.Milliseconds(),
		}
		if err := opts.Store.InsertRun(run, sum.Centroids); err != nil {
			return nil, fmt.Errorf("pipeline: record run: %w", err)
		}
		sum.RunID = run.RunID
		monitoring.Logf("recorded run %s", run.RunID)
	}

	return sum, nil
}

// openInput returns a reader for a local path or an http(s) URL.
func openInput(ctx context.Context, opts *Options) (io.ReadCloser, error) {
	if strings.HasPrefix(opts.Input, "http://") || strings.HasPrefix(opts.Input, "https://") {
		req, err := httputil.NewRequestWithContext(ctx, opts.Input)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		resp, err := opts.HTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("pipeline: fetch %s: %w", opts.Input, err)
		}
		if resp.StatusCode != 200 {
			resp.Body.Close()
			return nil, fmt.Errorf("pipeline: fetch %s: status %d", opts.Input, resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := opts.FS.Open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open %s: %w", opts.Input, err)
	}
	return f, nil
}

func writeLabeled(opts *Options, kept []trips.Trip, labels []int) error {
	f, err := opts.FS.Create(opts.OutputCSV)
	if err != nil {
		return fmt.Errorf("pipeline: create %s: %w", opts.OutputCSV, err)
	}
	w := trips.NewWriter(f)
	for i := range kept {
		if err := w.Write(kept[i], labels[i]); err != nil {
			f.Close()
			return fmt.Errorf("pipeline: write labeled csv: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("pipeline: flush labeled csv: %w", err)
	}
	return f.Close()
}

func safeRatio(a, b time.Duration) float64 {
	if b <= 0 {
		return 0
	}
	return float64(a) / float64(b)
}
