// Package web serves the run browsing API and the ECharts debug views.
package web

import (
	"net/http"
	"strconv"

	"github.com/banshee-data/triphubs/internal/db"
	"github.com/banshee-data/triphubs/internal/httputil"
	"github.com/banshee-data/triphubs/internal/version"
)

// Server exposes persisted clustering runs over HTTP.
type Server struct {
	db *db.DB
}

// NewServer returns a Server over the given database.
func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

// ServeMux returns the route table. API routes return JSON; /charts/ routes
// return rendered ECharts HTML.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /charts/hubs", s.handleHubChart)
	mux.HandleFunc("GET /charts/sizes", s.handleSizeChart)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	return mux
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			httputil.BadRequest(w, "limit must be an integer in [1, 500]")
			return
		}
		limit = n
	}

	runs, err := s.db.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if runs == nil {
		runs = []db.ClusterRun{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"runs": runs})
}

// runDetail is the /api/runs/{id} response shape.
type runDetail struct {
	Run       *db.ClusterRun   `json:"run"`
	Centroids []db.RunCentroid `json:"centroids"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	run, err := s.db.GetRun(runID)
	if err == db.ErrRunNotFound {
		httputil.NotFound(w, "no such run")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	centroids, err := s.db.Centroids(runID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, runDetail{Run: run, Centroids: centroids})
}

// resolveRun returns the run named by ?run_id=, defaulting to the latest.
func (s *Server) resolveRun(r *http.Request) (*db.ClusterRun, error) {
	if id := r.URL.Query().Get("run_id"); id != "" {
		return s.db.GetRun(id)
	}
	runs, err := s.db.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, db.ErrRunNotFound
	}
	return &runs[0], nil
}
