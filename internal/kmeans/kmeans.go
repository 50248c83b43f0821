// Package kmeans implements Lloyd's k-means over 2D points with k-means++
// seeding and optional warm-start centroids.
//
// The warm start exists for the two-phase big-data pattern: cluster a small
// random sample first, then run the full dataset seeded with the sample's
// centroids. The full run typically converges in a handful of iterations.
package kmeans

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Point is a position on the clustering plane, in meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Centroid is one cluster's mean position plus its membership count and
// within-cluster sum of squared distances.
type Centroid struct {
	Cluster int     `json:"cluster"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Size    int     `json:"size"`
	WSS     float64 `json:"wss"`
}

// Config controls a clustering run.
type Config struct {
	// K is the number of clusters. Required.
	K int

	// MaxIterations bounds the Lloyd loop. Defaults to 100.
	MaxIterations int

	// Tolerance stops the run when the relative WSS improvement between
	// iterations drops below it. Zero means run until assignments are stable.
	Tolerance float64

	// Seed drives the k-means++ initialization. Ignored with a warm start.
	Seed int64

	// InitialCentroids warm-starts the run. When set, its length must be K
	// and k-means++ seeding is skipped.
	InitialCentroids []Point
}

// Result is the output of one clustering run. Centroids are ordered by
// (X, Y) and Labels index into that ordering, so repeated runs over the
// same input and seed are comparable.
type Result struct {
	Centroids  []Centroid `json:"centroids"`
	Labels     []int      `json:"-"`
	TotalWSS   float64    `json:"total_wss"`
	Iterations int        `json:"iterations"`
	Converged  bool       `json:"converged"`
}

// ErrTooFewPoints is returned when the input has fewer points than K.
var ErrTooFewPoints = errors.New("kmeans: fewer points than clusters")

// Run clusters pts into cfg.K clusters.
//
// Guarantees on success: len(Centroids) == K, and the centroid sizes sum to
// len(pts).
func Run(pts []Point, cfg Config) (*Result, error) {
	if cfg.K <= 0 {
		return nil, fmt.Errorf("kmeans: K must be positive, got %d", cfg.K)
	}
	if len(pts) < cfg.K {
		return nil, fmt.Errorf("%w: %d points, K=%d", ErrTooFewPoints, len(pts), cfg.K)
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}

	var centroids []Point
	if cfg.InitialCentroids != nil {
		if len(cfg.InitialCentroids) != cfg.K {
			return nil, fmt.Errorf("kmeans: %d initial centroids for K=%d", len(cfg.InitialCentroids), cfg.K)
		}
		centroids = append([]Point(nil), cfg.InitialCentroids...)
	} else {
		rng := rand.New(rand.NewSource(cfg.Seed))
		centroids = seedPlusPlus(pts, cfg.K, rng)
	}

	labels := make([]int, len(pts))
	for i := range labels {
		labels[i] = -1
	}

	res := &Result{Labels: labels}
	prevWSS := math.Inf(1)

	for iter := 1; iter <= maxIter; iter++ {
		res.Iterations = iter

		changed, wss := assign(pts, centroids, labels)

		// Update step: recompute each centroid as the mean of its members.
		sums := make([]Point, cfg.K)
		counts := make([]int, cfg.K)
		for i, p := range pts {
			k := labels[i]
			sums[k].X += p.X
			sums[k].Y += p.Y
			counts[k]++
		}
		for k := range centroids {
			if counts[k] == 0 {
				// Reseed an empty cluster to the point farthest from its
				// centroid so the run still produces K populated clusters.
				centroids[k] = pts[farthest(pts, centroids, labels)]
				changed = true
				continue
			}
			centroids[k] = Point{X: sums[k].X / float64(counts[k]), Y: sums[k].Y / float64(counts[k])}
		}

		if !changed {
			res.Converged = true
			break
		}
		if cfg.Tolerance > 0 && prevWSS < math.Inf(1) {
			if (prevWSS-wss)/prevWSS < cfg.Tolerance {
				res.Converged = true
				break
			}
		}
		prevWSS = wss
	}

	// Final pass pins labels and per-cluster stats to the final centroids.
	assign(pts, centroids, labels)
	finalize(res, pts, centroids, labels)
	return res, nil
}

// assign gives every point the label of its nearest centroid. It runs in
// parallel chunks sized to GOMAXPROCS and returns whether any label changed
// plus the total squared distance under the current centroids.
func assign(pts []Point, centroids []Point, labels []int) (bool, float64) {
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(pts) + workers - 1) / workers

	var wg sync.WaitGroup
	changedCh := make([]bool, workers)
	wssCh := make([]float64, workers)

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(pts) {
			end = len(pts)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				best, bestD2 := 0, math.MaxFloat64
				for k := range centroids {
					d2 := dist2(pts[i], centroids[k])
					if d2 < bestD2 {
						best, bestD2 = k, d2
					}
				}
				if labels[i] != best {
					labels[i] = best
					changedCh[w] = true
				}
				wssCh[w] += bestD2
			}
		}(w, start, end)
	}
	wg.Wait()

	changed := false
	for _, c := range changedCh {
		changed = changed || c
	}
	return changed, floats.Sum(wssCh)
}

// seedPlusPlus picks K initial centroids with the k-means++ weighting:
// the first uniformly, each next with probability proportional to squared
// distance from the nearest centroid chosen so far.
func seedPlusPlus(pts []Point, k int, rng *rand.Rand) []Point {
	centroids := make([]Point, 0, k)
	centroids = append(centroids, pts[rng.Intn(len(pts))])

	d2 := make([]float64, len(pts))
	for len(centroids) < k {
		total := 0.0
		for i, p := range pts {
			best := math.MaxFloat64
			for _, c := range centroids {
				if d := dist2(p, c); d < best {
					best = d
				}
			}
			d2[i] = best
			total += best
		}
		if total == 0 {
			// All remaining points coincide with chosen centroids.
			centroids = append(centroids, pts[rng.Intn(len(pts))])
			continue
		}
		r := rng.Float64() * total
		cum := 0.0
		picked := len(pts) - 1
		for i, d := range d2 {
			cum += d
			if cum >= r {
				picked = i
				break
			}
		}
		centroids = append(centroids, pts[picked])
	}
	return centroids
}

// farthest returns the index of the point with the greatest squared distance
// to its assigned centroid.
func farthest(pts []Point, centroids []Point, labels []int) int {
	best, bestD2 := 0, -1.0
	for i, p := range pts {
		if labels[i] < 0 {
			continue
		}
		if d2 := dist2(p, centroids[labels[i]]); d2 > bestD2 {
			best, bestD2 = i, d2
		}
	}
	return best
}

// finalize orders centroids by (X, Y), remaps labels to the new ordering,
// and fills per-cluster size and WSS.
func finalize(res *Result, pts []Point, centroids []Point, labels []int) {
	k := len(centroids)
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ca, cb := centroids[order[a]], centroids[order[b]]
		if ca.X != cb.X {
			return ca.X < cb.X
		}
		return ca.Y < cb.Y
	})

	remap := make([]int, k)
	for newIdx, oldIdx := range order {
		remap[oldIdx] = newIdx
	}

	out := make([]Centroid, k)
	for newIdx, oldIdx := range order {
		out[newIdx] = Centroid{Cluster: newIdx, X: centroids[oldIdx].X, Y: centroids[oldIdx].Y}
	}
	for i := range labels {
		labels[i] = remap[labels[i]]
		c := &out[labels[i]]
		c.Size++
		c.WSS += dist2(pts[i], Point{X: c.X, Y: c.Y})
	}

	res.Centroids = out
	res.TotalWSS = 0
	for i := range out {
		res.TotalWSS += out[i].WSS
	}
}

// Points converts the result centroids back to bare points, for use as a
// warm start on a larger dataset.
func (r *Result) Points() []Point {
	out := make([]Point, len(r.Centroids))
	for i, c := range r.Centroids {
		out[i] = Point{X: c.X, Y: c.Y}
	}
	return out
}

func dist2(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
