package db

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// openTestDB opens a fresh database in a temp dir and applies all migrations.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.MigrateUp("../../migrations"); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	return database
}

func testRun() (*ClusterRun, []RunCentroid) {
	run := &ClusterRun{
		Source:         "trip_data_1.csv",
		RowsTotal:      14776615,
		RowsKept:       14582451,
		RowsClustered:  14582451,
		SampleFraction: 0.01,
		Seed:           10,
		K:              2,
		Iterations:     4,
		Converged:      true,
		WarmStart:      true,
		TotalWSS:       1.25e9,
		DurationMs:     8150,
	}
	centroids := []RunCentroid{
		{Cluster: 0, Lng: -73.99, Lat: 40.73, Size: 7000000, WSS: 6.5e8},
		{Cluster: 1, Lng: -73.97, Lat: 40.76, Size: 7582451, WSS: 6.0e8},
	}
	return run, centroids
}

func TestInsertAndGetRun(t *testing.T) {
	database := openTestDB(t)

	run, centroids := testRun()
	if err := database.InsertRun(run, centroids); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if run.RunID == "" {
		t.Fatal("InsertRun did not assign a run ID")
	}
	if run.CreatedAt == 0 {
		t.Fatal("InsertRun did not assign a creation time")
	}

	got, err := database.GetRun(run.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRunNotFound(t *testing.T) {
	database := openTestDB(t)

	_, err := database.GetRun("no-such-run")
	if err != ErrRunNotFound {
		t.Errorf("GetRun error = %v, want ErrRunNotFound", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	database := openTestDB(t)

	for i := 0; i < 3; i++ {
		run, centroids := testRun()
		run.CreatedAt = int64(1000 + i)
		run.K = i + 2
		if err := database.InsertRun(run, centroids); err != nil {
			t.Fatalf("InsertRun %d failed: %v", i, err)
		}
	}

	runs, err := database.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].CreatedAt != 1002 || runs[2].CreatedAt != 1000 {
		t.Errorf("runs not ordered newest first: %v", runs)
	}

	limited, err := database.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit to cap results, got %d", len(limited))
	}
}

func TestCentroidsOrderedByCluster(t *testing.T) {
	database := openTestDB(t)

	run, centroids := testRun()
	// Insert out of order; reads must come back sorted.
	centroids[0], centroids[1] = centroids[1], centroids[0]
	if err := database.InsertRun(run, centroids); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	got, err := database.Centroids(run.RunID)
	if err != nil {
		t.Fatalf("Centroids failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 centroids, got %d", len(got))
	}
	for i, c := range got {
		if c.Cluster != i {
			t.Errorf("centroid %d has cluster %d", i, c.Cluster)
		}
		if c.RunID != run.RunID {
			t.Errorf("centroid %d has run ID %q, want %q", i, c.RunID, run.RunID)
		}
	}
}

func TestCentroidsCascadeDelete(t *testing.T) {
	database := openTestDB(t)

	run, centroids := testRun()
	if err := database.InsertRun(run, centroids); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	if _, err := database.Exec("DELETE FROM cluster_runs WHERE run_id = ?", run.RunID); err != nil {
		t.Fatalf("delete run failed: %v", err)
	}

	got, err := database.Centroids(run.RunID)
	if err != nil {
		t.Fatalf("Centroids failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected centroids to cascade on run delete, got %d", len(got))
	}
}

func TestMigrateDownAndBackUp(t *testing.T) {
	database := openTestDB(t)

	if err := database.MigrateDown("../../migrations"); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	if err := database.MigrateUp("../../migrations"); err != nil {
		t.Fatalf("MigrateUp after down failed: %v", err)
	}

	run, centroids := testRun()
	if err := database.InsertRun(run, centroids); err != nil {
		t.Fatalf("InsertRun after re-migrate failed: %v", err)
	}
}

func TestCheckMigrations(t *testing.T) {
	database := openTestDB(t)

	if err := database.CheckMigrations("../../migrations"); err != nil {
		t.Errorf("CheckMigrations on migrated db = %v, want nil", err)
	}

	fresh, err := NewDB(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer fresh.Close()

	if err := fresh.CheckMigrations("../../migrations"); err == nil {
		t.Error("CheckMigrations on unmigrated db = nil, want error")
	}
}
