// Package report renders PNG plots and the labeled CSV export for a
// clustering run.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/triphubs/internal/fsutil"
	"github.com/banshee-data/triphubs/internal/kmeans"
	"github.com/banshee-data/triphubs/internal/security"
)

// Renderer writes plot files under OutDir. Output goes through the
// FileSystem abstraction so tests can render into memory.
type Renderer struct {
	FS     fsutil.FileSystem
	OutDir string

	// MaxPoints caps the number of points drawn on the scatter; larger
	// inputs are downsampled by stride. Defaults to 20000.
	MaxPoints int
}

// NewRenderer returns a Renderer writing real files under outDir.
func NewRenderer(outDir string) *Renderer {
	return &Renderer{
		FS:        fsutil.OSFileSystem{},
		OutDir:    outDir,
		MaxPoints: 20000,
	}
}

// ClusterScatter renders the clustered points colored by label with the
// centroids overlaid as black markers.
func (r *Renderer) ClusterScatter(pts []kmeans.Point, labels []int, centroids []kmeans.Centroid, name string) error {
	if len(pts) != len(labels) {
		return fmt.Errorf("report: %d points but %d labels", len(pts), len(labels))
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Pickup density hubs (k=%d, n=%d)", len(centroids), len(pts))
	p.X.Label.Text = "East (m)"
	p.Y.Label.Text = "North (m)"

	maxPoints := r.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 20000
	}
	stride := 1
	if len(pts) > maxPoints {
		stride = (len(pts) + maxPoints - 1) / maxPoints
	}

	byCluster := make([]plotter.XYs, len(centroids))
	for i := 0; i < len(pts); i += stride {
		k := labels[i]
		if k < 0 || k >= len(byCluster) {
			continue
		}
		byCluster[k] = append(byCluster[k], plotter.XY{X: pts[i].X, Y: pts[i].Y})
	}

	colors := clusterColors(len(centroids))
	for k, xys := range byCluster {
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("cluster %d scatter: %w", k, err)
		}
		s.GlyphStyle.Color = colors[k]
		s.GlyphStyle.Radius = vg.Points(1)
		p.Add(s)
	}

	centXYs := make(plotter.XYs, len(centroids))
	for i, c := range centroids {
		centXYs[i] = plotter.XY{X: c.X, Y: c.Y}
	}
	cs, err := plotter.NewScatter(centXYs)
	if err != nil {
		return fmt.Errorf("centroid scatter: %w", err)
	}
	cs.GlyphStyle.Color = color.Black
	cs.GlyphStyle.Radius = vg.Points(4)
	p.Add(cs)
	p.Legend.Add("centroids", cs)
	p.Legend.Top = true

	return r.writePlot(p, 10*vg.Inch, 10*vg.Inch, name)
}

// ElbowCurve renders total WSS against K.
func (r *Renderer) ElbowCurve(sweep []kmeans.SweepPoint, name string) error {
	if len(sweep) == 0 {
		return fmt.Errorf("report: empty sweep")
	}

	p := plot.New()
	p.Title.Text = "Within-cluster sum of squares by K"
	p.X.Label.Text = "K"
	p.Y.Label.Text = "Total WSS"

	xys := make(plotter.XYs, len(sweep))
	for i, s := range sweep {
		xys[i] = plotter.XY{X: float64(s.K), Y: s.TotalWSS}
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("elbow line: %w", err)
	}
	line.Width = vg.Points(1)
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("elbow points: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(line, scatter)

	return r.writePlot(p, 8*vg.Inch, 5*vg.Inch, name)
}

// writePlot renders p as PNG to OutDir/name via the FileSystem.
func (r *Renderer) writePlot(p *plot.Plot, w, h vg.Length, name string) error {
	path := filepath.Join(r.OutDir, name)
	if err := security.ValidatePathWithinDirectory(path, r.OutDir); err != nil {
		return fmt.Errorf("plot path: %w", err)
	}
	if err := r.FS.MkdirAll(r.OutDir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	f, err := r.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write plot file: %w", err)
	}
	return f.Close()
}
