package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCurve(t *testing.T) {
	pts := threeBlobs(300, 6)

	curve, err := Sweep(pts, 1, 6, Config{Seed: 3})
	require.NoError(t, err)
	require.Len(t, curve, 6)

	for i, sp := range curve {
		assert.Equal(t, i+1, sp.K)
	}

	// The elbow: going from K=2 to K=3 on three blobs should cut WSS far
	// more than going from K=3 to K=4.
	drop23 := curve[1].TotalWSS - curve[2].TotalWSS
	drop34 := curve[2].TotalWSS - curve[3].TotalWSS
	assert.Greater(t, drop23, drop34*5, "expected a sharp elbow at K=3")
}

func TestSweepBadRange(t *testing.T) {
	pts := threeBlobs(30, 7)

	_, err := Sweep(pts, 0, 5, Config{})
	assert.Error(t, err)

	_, err = Sweep(pts, 5, 2, Config{})
	assert.Error(t, err)
}

func TestSweepStopsPastPointCount(t *testing.T) {
	pts := threeBlobs(4, 8)

	curve, err := Sweep(pts, 2, 10, Config{Seed: 1})
	assert.ErrorIs(t, err, ErrTooFewPoints)
	// Runs up to K=4 succeed before the error.
	assert.Len(t, curve, 3)
}
