package testutil

import (
	"net/http"
	"testing"
)

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest(http.MethodGet, "/api/runs?limit=5")
	if req.Method != http.MethodGet {
		t.Errorf("method = %q, want GET", req.Method)
	}
	if req.URL.Path != "/api/runs" {
		t.Errorf("path = %q, want /api/runs", req.URL.Path)
	}
	if got := req.URL.Query().Get("limit"); got != "5" {
		t.Errorf("limit = %q, want 5", got)
	}
}

func TestNewTestRecorder(t *testing.T) {
	t.Parallel()

	rec := NewTestRecorder()
	rec.WriteHeader(http.StatusTeapot)
	AssertStatusCode(t, rec.Code, http.StatusTeapot)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	rec := NewTestRecorder()
	rec.Body.WriteString(`{"runs": 2}`)

	var body struct {
		Runs int `json:"runs"`
	}
	DecodeJSON(t, rec, &body)
	if body.Runs != 2 {
		t.Errorf("runs = %d, want 2", body.Runs)
	}
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}
