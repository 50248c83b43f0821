package web

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/triphubs/internal/db"
	"github.com/banshee-data/triphubs/internal/httputil"
)

// viridis is the visual map gradient shared by the chart handlers.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// handleHubChart renders a lng/lat scatter of a run's centroids. Symbol size
// tracks cluster membership so the big pickup hubs dominate the view.
// Query params: run_id (optional; defaults to the latest run).
func (s *Server) handleHubChart(w http.ResponseWriter, r *http.Request) {
	run, err := s.resolveRun(r)
	if err == db.ErrRunNotFound {
		httputil.NotFound(w, "no runs recorded")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	centroids, err := s.db.Centroids(run.RunID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if len(centroids) == 0 {
		httputil.NotFound(w, "run has no centroids")
		return
	}

	maxSize := 0
	for _, c := range centroids {
		if c.Size > maxSize {
			maxSize = c.Size
		}
	}
	if maxSize == 0 {
		maxSize = 1
	}

	data := make([]opts.ScatterData, 0, len(centroids))
	for _, c := range centroids {
		// Scale symbols to [4, 40] px by relative membership.
		symbol := 4 + 36*float32(c.Size)/float32(maxSize)
		data = append(data, opts.ScatterData{
			Value:      []interface{}{c.Lng, c.Lat, c.Size},
			SymbolSize: int(symbol),
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trip Hubs", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Pickup density hubs",
			Subtitle: fmt.Sprintf("run=%s k=%d n=%d", run.RunID, run.K, run.RowsClustered),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25, Min: "dataMin", Max: "dataMax"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30, Min: "dataMin", Max: "dataMax"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxSize),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("hubs", data)

	renderChart(w, scatter)
}

// handleSizeChart renders a bar chart of cluster membership counts.
func (s *Server) handleSizeChart(w http.ResponseWriter, r *http.Request) {
	run, err := s.resolveRun(r)
	if err == db.ErrRunNotFound {
		httputil.NotFound(w, "no runs recorded")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	centroids, err := s.db.Centroids(run.RunID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	x := make([]string, 0, len(centroids))
	y := make([]opts.BarData, 0, len(centroids))
	for _, c := range centroids {
		x = append(x, fmt.Sprintf("%d", c.Cluster))
		y = append(y, opts.BarData{Value: c.Size})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cluster sizes",
			Subtitle: fmt.Sprintf("run=%s k=%d", run.RunID, run.K),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("trips", y)

	renderChart(w, bar)
}

// renderable is the slice of the go-echarts chart API the handlers need.
type renderable interface {
	Render(w io.Writer) error
}

func renderChart(w http.ResponseWriter, c renderable) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>Trip Hubs Dashboard</title>
<style>
body { background: #111; color: #ddd; font-family: sans-serif; margin: 1em; }
iframe { border: 1px solid #333; background: #1a1a1a; }
</style>
</head>
<body>
<h1>Trip Hubs%s</h1>
<iframe src="/charts/hubs%s" width="940" height="940"></iframe>
<iframe src="/charts/sizes%s" width="940" height="760"></iframe>
</body>
</html>`

// handleDashboard renders a simple page with iframes to the debug charts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	title := ""
	qs := ""
	if id := r.URL.Query().Get("run_id"); id != "" {
		// Escaped separately for the heading text and the iframe URLs.
		title = ": run " + html.EscapeString(id)
		qs = "?run_id=" + url.QueryEscape(id)
	}
	safeQs := html.EscapeString(qs)

	doc := fmt.Sprintf(dashboardHTML, title, safeQs, safeQs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}
