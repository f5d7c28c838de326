// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/quest-tally/cliparse"
	"github.com/danielhkuo/quest-tally/testutil"
)

type testServer struct {
	db      *sql.DB
	cfg     cliparse.Config
	tallies *TallyHandler
	edits   *EditHandler
	results *ResultsHandler
	metrics *Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	sessions := NewSessions()
	metrics := NewMetrics(prometheus.NewRegistry())
	return &testServer{
		db:      db,
		cfg:     cfg,
		tallies: NewTallyHandler(db, cfg, sessions, metrics),
		edits:   NewEditHandler(db, cfg, sessions, metrics),
		results: NewResultsHandler(db, cfg, sessions),
		metrics: metrics,
	}
}

// call sends a request for tally id to h. An empty key sends no edit key.
func call(h http.HandlerFunc, method, path, id, key string, body any) *httptest.ResponseRecorder {
	headers := map[string]string{}
	if key != "" {
		headers["X-Edit-Key"] = key
	}
	req := testutil.MakeRequest(method, path, body, headers)
	if id != "" {
		req.SetPathValue("id", id)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// seedQuest stores a small thread: two plain voters and three rankers.
func (s *testServer) seedQuest(t *testing.T, tallyID string) {
	t.Helper()

	testutil.AddTestPost(t, s.db, tallyID, "p1", 1, "Kinematics", "[x] Go north", "[x] Fight the dragon")
	testutil.AddTestPost(t, s.db, tallyID, "p2", 2, "Beyogi", "[x] Go north")
	testutil.AddTestPost(t, s.db, tallyID, "p3", 3, "Ralena", "[1][Color] Red", "[2][Color] Blue")
	testutil.AddTestPost(t, s.db, tallyID, "p4", 4, "Atreya", "[1][Color] Blue", "[2][Color] Red")
	testutil.AddTestPost(t, s.db, tallyID, "p5", 5, "Kalle", "[1][Color] Red")
}

func (s *testServer) run(t *testing.T, tallyID, editKey string) *httptest.ResponseRecorder {
	t.Helper()

	w := call(s.tallies.RunTally, "POST", "/tallies/"+tallyID+"/run", tallyID, editKey, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	return w
}
