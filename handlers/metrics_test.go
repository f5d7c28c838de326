// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/quest-tally/models"
	"github.com/danielhkuo/quest-tally/testutil"
)

func TestMetricsCountRunsAndEdits(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")

	w := call(s.tallies.SubmitPosts, "POST", "/tallies/"+tallyID+"/posts", tallyID, editKey, models.SubmitPostsRequest{
		Posts: []models.PostInput{
			{ID: "p1", Number: 1, Author: "Kinematics", Lines: []string{"[x] Go north", "[x] Fight the dragon"}},
			{ID: "p2", Number: 2, Author: "Beyogi", Lines: []string{"[x] Go north"}},
		},
	})
	testutil.AssertStatus(t, w, http.StatusOK)

	s.run(t, tallyID, editKey)
	w = call(s.tallies.RunTally, "POST", "/tallies/"+tallyID+"/run", tallyID, editKey, models.RunTallyRequest{Method: "schulze"})
	testutil.AssertStatus(t, w, http.StatusOK)

	w = call(s.edits.Delete, "POST", "/tallies/"+tallyID+"/delete", tallyID, editKey, models.DeleteRequest{Vote: "[x] Go west"})
	testutil.AssertStatus(t, w, http.StatusNotFound)
	w = call(s.edits.Delete, "POST", "/tallies/"+tallyID+"/delete", tallyID, editKey, models.DeleteRequest{Vote: "[x] Go north"})
	testutil.AssertStatus(t, w, http.StatusOK)

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"posts stored", promtest.ToFloat64(s.metrics.postsStored), 2},
		{"baldwin runs", promtest.ToFloat64(s.metrics.runs.WithLabelValues("baldwin", "ok")), 1},
		{"schulze runs", promtest.ToFloat64(s.metrics.runs.WithLabelValues("schulze", "ok")), 1},
		{"missed deletes", promtest.ToFloat64(s.metrics.edits.WithLabelValues("delete", "miss")), 1},
		{"deletes", promtest.ToFloat64(s.metrics.edits.WithLabelValues("delete", "ok")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, tt.got)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observeRun("baldwin", "ok", 0)
	m.observeEdit("merge", "ok")
	m.addPosts(3)
}
