package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClusterRun is one persisted clustering run over a trip file.
type ClusterRun struct {
	RunID          string  `json:"run_id"`
	Source         string  `json:"source"`
	RowsTotal      int     `json:"rows_total"`
	RowsKept       int     `json:"rows_kept"`
	RowsClustered  int     `json:"rows_clustered"`
	SampleFraction float64 `json:"sample_fraction"`
	Seed           int64   `json:"seed"`
	K              int     `json:"k"`
	Iterations     int     `json:"iterations"`
	Converged      bool    `json:"converged"`
	WarmStart      bool    `json:"warm_start"`
	TotalWSS       float64 `json:"total_wss"`
	DurationMs     int64   `json:"duration_ms"`
	CreatedAt      int64   `json:"created_at"` // unix nanos
}

// RunCentroid is one cluster centroid belonging to a run, in lng/lat degrees.
type RunCentroid struct {
	RunID   string  `json:"run_id"`
	Cluster int     `json:"cluster"`
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Size    int     `json:"size"`
	WSS     float64 `json:"wss"`
}

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("db: run not found")

// InsertRun persists a run and its centroids in one transaction. A missing
// RunID or CreatedAt is filled in.
func (db *DB) InsertRun(run *ClusterRun, centroids []RunCentroid) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO cluster_runs (
			run_id, source, rows_total, rows_kept, rows_clustered,
			sample_fraction, seed, k, iterations, converged, warm_start,
			total_wss, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Source, run.RowsTotal, run.RowsKept, run.RowsClustered,
		run.SampleFraction, run.Seed, run.K, run.Iterations, run.Converged,
		run.WarmStart, run.TotalWSS, run.DurationMs, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cluster run: %w", err)
	}

	for i := range centroids {
		c := &centroids[i]
		c.RunID = run.RunID
		if _, err := tx.Exec(`INSERT INTO centroids (
				run_id, cluster, lng, lat, size, wss
			) VALUES (?, ?, ?, ?, ?, ?)`,
			c.RunID, c.Cluster, c.Lng, c.Lat, c.Size, c.WSS,
		); err != nil {
			return fmt.Errorf("insert centroid %d: %w", c.Cluster, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]ClusterRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`SELECT run_id, source, rows_total, rows_kept,
			rows_clustered, sample_fraction, seed, k, iterations, converged,
			warm_start, total_wss, duration_ms, created_at
		FROM cluster_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []ClusterRun
	for rows.Next() {
		var r ClusterRun
		if err := rows.Scan(
			&r.RunID, &r.Source, &r.RowsTotal, &r.RowsKept, &r.RowsClustered,
			&r.SampleFraction, &r.Seed, &r.K, &r.Iterations, &r.Converged,
			&r.WarmStart, &r.TotalWSS, &r.DurationMs, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns a single run by ID.
func (db *DB) GetRun(runID string) (*ClusterRun, error) {
	var r ClusterRun
	err := db.QueryRow(`SELECT run_id, source, rows_total, rows_kept,
			rows_clustered, sample_fraction, seed, k, iterations, converged,
			warm_start, total_wss, duration_ms, created_at
		FROM cluster_runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Source, &r.RowsTotal, &r.RowsKept, &r.RowsClustered,
		&r.SampleFraction, &r.Seed, &r.K, &r.Iterations, &r.Converged,
		&r.WarmStart, &r.TotalWSS, &r.DurationMs, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &r, nil
}

// Centroids returns the centroids for a run ordered by cluster index.
func (db *DB) Centroids(runID string) ([]RunCentroid, error) {
	rows, err := db.Query(`SELECT run_id, cluster, lng, lat, size, wss
		FROM centroids WHERE run_id = ? ORDER BY cluster`, runID)
	if err != nil {
		return nil, fmt.Errorf("list centroids: %w", err)
	}
	defer rows.Close()

	var out []RunCentroid
	for rows.Next() {
		var c RunCentroid
		if err := rows.Scan(&c.RunID, &c.Cluster, &c.Lng, &c.Lat, &c.Size, &c.WSS); err != nil {
			return nil, fmt.Errorf("scan centroid: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
