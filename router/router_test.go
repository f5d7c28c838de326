// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/quest-tally/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "quest-tally API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestUnknownPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/polls", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestRouteExistence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, testutil.GetTestConfig())

	// 400, 401, 404 and 409 are all valid handler responses here
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/"},

		{"POST", "/tallies"},
		{"POST", "/tallies/test-id/posts"},
		{"POST", "/tallies/test-id/run"},

		{"POST", "/tallies/test-id/merge"},
		{"POST", "/tallies/test-id/join"},
		{"POST", "/tallies/test-id/delete"},
		{"POST", "/tallies/test-id/undo"},

		{"GET", "/tallies/test-id"},
		{"GET", "/tallies/test-id/votes"},
		{"GET", "/tallies/test-id/results"},
		{"GET", "/tallies/test-id/preview"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, testutil.GetTestConfig())

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"DELETE", "/tallies/test-id"},
		{"GET", "/tallies/test-id/run"},
		{"PUT", "/tallies/test-id/posts"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	tallyID, _ := testutil.CreateTestTally(t, db, cfg, "Path Quest")
	mux := NewRouter(db, cfg)

	req := httptest.NewRequest("GET", "/tallies/"+tallyID, nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for existing tally, got %d. Body: %s", w.Code, w.Body.String())
	}
}

func TestSessionsSharedAcrossHandlers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	tallyID, editKey := testutil.CreateTestTally(t, db, cfg, "Shared Quest")
	testutil.AddTestPost(t, db, tallyID, "p1", 1, "Kinematics", "[x] Go north")
	mux := NewRouter(db, cfg)

	run := testutil.MakeRequest("POST", "/tallies/"+tallyID+"/run", nil, map[string]string{"X-Edit-Key": editKey})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, run)
	testutil.AssertStatus(t, w, http.StatusOK)

	// The votes endpoint only answers once the run's session is visible to it
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/tallies/"+tallyID+"/votes", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestMetricsEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	tallyID, editKey := testutil.CreateTestTally(t, db, cfg, "Metrics Quest")
	testutil.AddTestPost(t, db, tallyID, "p1", 1, "Kinematics", "[x] Go north")
	mux := NewRouter(db, cfg)

	run := testutil.MakeRequest("POST", "/tallies/"+tallyID+"/run", nil, map[string]string{"X-Edit-Key": editKey})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, run)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	body := w.Body.String()
	for _, want := range []string{
		`quest_tally_runs_total{method="baldwin",outcome="ok"} 1`,
		"go_goroutines",
		"go_sql_open_connections",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics output to contain %q", want)
		}
	}
}
