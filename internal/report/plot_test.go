package report

import (
	"bytes"
	"testing"

	"github.com/banshee-data/triphubs/internal/fsutil"
	"github.com/banshee-data/triphubs/internal/kmeans"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func memRenderer() (*Renderer, *fsutil.MemoryFileSystem) {
	fs := fsutil.NewMemoryFileSystem()
	return &Renderer{FS: fs, OutDir: "plots", MaxPoints: 1000}, fs
}

func TestClusterScatterWritesPNG(t *testing.T) {
	rend, fs := memRenderer()

	pts := []kmeans.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 100, Y: 100}, {X: 101, Y: 99}}
	labels := []int{0, 0, 1, 1}
	centroids := []kmeans.Centroid{
		{Cluster: 0, X: 0.5, Y: 0.5, Size: 2},
		{Cluster: 1, X: 100.5, Y: 99.5, Size: 2},
	}

	if err := rend.ClusterScatter(pts, labels, centroids, "hubs.png"); err != nil {
		t.Fatalf("ClusterScatter failed: %v", err)
	}

	data, err := fs.ReadFile("plots/hubs.png")
	if err != nil {
		t.Fatalf("plot file not written: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("output is not a PNG, starts with %x", data[:4])
	}
}

func TestClusterScatterDownsamples(t *testing.T) {
	rend, fs := memRenderer()
	rend.MaxPoints = 10

	pts := make([]kmeans.Point, 500)
	labels := make([]int, 500)
	for i := range pts {
		pts[i] = kmeans.Point{X: float64(i), Y: float64(i % 7)}
	}
	centroids := []kmeans.Centroid{{Cluster: 0, X: 250, Y: 3}}

	if err := rend.ClusterScatter(pts, labels, centroids, "big.png"); err != nil {
		t.Fatalf("ClusterScatter failed: %v", err)
	}
	if !fs.Exists("plots/big.png") {
		t.Error("downsampled plot not written")
	}
}

func TestClusterScatterLabelMismatch(t *testing.T) {
	rend, _ := memRenderer()

	pts := []kmeans.Point{{X: 0, Y: 0}}
	if err := rend.ClusterScatter(pts, nil, nil, "bad.png"); err == nil {
		t.Error("expected error for mismatched points and labels")
	}
}

func TestClusterScatterRejectsPathEscape(t *testing.T) {
	rend, _ := memRenderer()

	pts := []kmeans.Point{{X: 0, Y: 0}}
	labels := []int{0}
	centroids := []kmeans.Centroid{{Cluster: 0}}

	if err := rend.ClusterScatter(pts, labels, centroids, "../escape.png"); err == nil {
		t.Error("expected error for a name escaping the output dir")
	}
}

func TestElbowCurveWritesPNG(t *testing.T) {
	rend, fs := memRenderer()

	sweep := []kmeans.SweepPoint{
		{K: 1, TotalWSS: 1000},
		{K: 2, TotalWSS: 400},
		{K: 3, TotalWSS: 120},
		{K: 4, TotalWSS: 100},
	}
	if err := rend.ElbowCurve(sweep, "elbow.png"); err != nil {
		t.Fatalf("ElbowCurve failed: %v", err)
	}

	data, err := fs.ReadFile("plots/elbow.png")
	if err != nil {
		t.Fatalf("elbow file not written: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("output is not a PNG, starts with %x", data[:4])
	}
}

func TestElbowCurveEmptySweep(t *testing.T) {
	rend, _ := memRenderer()
	if err := rend.ElbowCurve(nil, "elbow.png"); err == nil {
		t.Error("expected error for empty sweep")
	}
}

func TestClusterColors(t *testing.T) {
	colors := clusterColors(12)
	if len(colors) != 12 {
		t.Fatalf("expected 12 colors, got %d", len(colors))
	}
	seen := make(map[[4]uint32]bool)
	for _, c := range colors {
		r, g, b, a := c.RGBA()
		key := [4]uint32{r, g, b, a}
		if seen[key] {
			t.Errorf("duplicate color %v", key)
		}
		seen[key] = true
	}
}
