package kmeans

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeBlobs generates n points around three well-separated centers.
func threeBlobs(n int, seed int64) []Point {
	rng := rand.New(rand.NewSource(seed))
	centers := []Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}}

	pts := make([]Point, n)
	for i := range pts {
		c := centers[i%len(centers)]
		pts[i] = Point{
			X: c.X + rng.NormFloat64()*2,
			Y: c.Y + rng.NormFloat64()*2,
		}
	}
	return pts
}

func TestRunRecoversSeparatedClusters(t *testing.T) {
	pts := threeBlobs(300, 1)

	res, err := Run(pts, Config{K: 3, Seed: 7})
	require.NoError(t, err)
	require.Len(t, res.Centroids, 3)
	assert.True(t, res.Converged, "expected convergence on separated blobs")

	// Every centroid should sit within a few units of a true center.
	trueCenters := []Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}}
	for _, c := range res.Centroids {
		best := math.MaxFloat64
		for _, tc := range trueCenters {
			if d := math.Hypot(c.X-tc.X, c.Y-tc.Y); d < best {
				best = d
			}
		}
		assert.Less(t, best, 3.0, "centroid (%v, %v) far from any true center", c.X, c.Y)
	}
}

func TestRunInvariants(t *testing.T) {
	pts := threeBlobs(299, 2)

	for _, k := range []int{1, 3, 10} {
		res, err := Run(pts, Config{K: k, Seed: 5})
		require.NoError(t, err, "k=%d", k)

		require.Len(t, res.Centroids, k, "centroid count must equal K")

		sizeSum := 0
		wssSum := 0.0
		for _, c := range res.Centroids {
			sizeSum += c.Size
			wssSum += c.WSS
		}
		assert.Equal(t, len(pts), sizeSum, "cluster sizes must sum to the point count")
		assert.InDelta(t, res.TotalWSS, wssSum, 1e-6)

		require.Len(t, res.Labels, len(pts))
		for i, l := range res.Labels {
			require.GreaterOrEqual(t, l, 0, "label %d", i)
			require.Less(t, l, k, "label %d", i)
		}
	}
}

func TestRunDeterministicOrdering(t *testing.T) {
	pts := threeBlobs(300, 3)

	a, err := Run(pts, Config{K: 3, Seed: 11})
	require.NoError(t, err)
	b, err := Run(pts, Config{K: 3, Seed: 11})
	require.NoError(t, err)

	assert.Equal(t, a.Centroids, b.Centroids, "same input and seed must give identical centroids")

	for i := 1; i < len(a.Centroids); i++ {
		prev, cur := a.Centroids[i-1], a.Centroids[i]
		ordered := prev.X < cur.X || (prev.X == cur.X && prev.Y < cur.Y)
		assert.True(t, ordered, "centroids must be ordered by (X, Y)")
	}
}

func TestRunWarmStart(t *testing.T) {
	pts := threeBlobs(3000, 4)

	sampleRes, err := Run(pts[:300], Config{K: 3, Seed: 9})
	require.NoError(t, err)

	full, err := Run(pts, Config{K: 3, InitialCentroids: sampleRes.Points()})
	require.NoError(t, err)

	assert.True(t, full.Converged)
	// Seeded from near-final centroids, the full run should need only a
	// couple of Lloyd iterations.
	assert.LessOrEqual(t, full.Iterations, 5)
}

func TestRunErrors(t *testing.T) {
	pts := threeBlobs(10, 5)

	_, err := Run(pts, Config{K: 0})
	assert.Error(t, err)

	_, err = Run(pts, Config{K: 11})
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = Run(pts, Config{K: 3, InitialCentroids: []Point{{X: 1, Y: 1}}})
	assert.Error(t, err, "warm start with wrong centroid count must fail")
}

func TestRunIdenticalPoints(t *testing.T) {
	pts := make([]Point, 20)
	for i := range pts {
		pts[i] = Point{X: 1, Y: 2}
	}

	res, err := Run(pts, Config{K: 2, Seed: 1})
	require.NoError(t, err)
	require.Len(t, res.Centroids, 2)

	sizeSum := 0
	for _, c := range res.Centroids {
		sizeSum += c.Size
	}
	assert.Equal(t, len(pts), sizeSum)
	assert.InDelta(t, 0.0, res.TotalWSS, 1e-9)
}

func TestResultPoints(t *testing.T) {
	res := &Result{Centroids: []Centroid{{X: 1, Y: 2}, {X: 3, Y: 4}}}
	assert.Equal(t, []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, res.Points())
}
