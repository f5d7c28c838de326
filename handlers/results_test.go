// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/quest-tally/models"
	"github.com/danielhkuo/quest-tally/testutil"
)

func TestGetTally(t *testing.T) {
	s := newTestServer(t)
	tallyID, _ := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest", "Color")

	tests := []struct {
		name           string
		tallyID        string
		expectedStatus int
	}{
		{"existing tally", tallyID, http.StatusOK},
		{"unknown tally", "00000000-0000-4000-8000-000000000000", http.StatusNotFound},
		{"missing id", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(s.results.GetTally, "GET", "/tallies/"+tt.tallyID, tt.tallyID, "", nil)
			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var tally models.Tally
			testutil.AssertJSON(t, w, &tally)
			if tally.ID != tallyID || tally.Title != "Forge Quest" {
				t.Errorf("Unexpected tally: %+v", tally)
			}
			if diff := cmp.Diff([]string{"Color"}, tally.Tasks); diff != "" {
				t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetVotes(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")
	s.seedQuest(t, tallyID)

	w := call(s.results.GetVotes, "GET", "/tallies/"+tallyID+"/votes", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusConflict)

	s.run(t, tallyID, editKey)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedVotes  map[string][]string
		expectedVoters map[string]string
	}{
		{
			name:           "default type",
			expectedStatus: http.StatusOK,
			expectedVotes: map[string][]string{
				"[x] Go north":         {"Beyogi", "Kinematics"},
				"[x] Fight the dragon": {"Kinematics"},
			},
			expectedVoters: map[string]string{"Kinematics": "p1", "Beyogi": "p2"},
		},
		{
			name:           "rank",
			query:          "?type=rank",
			expectedStatus: http.StatusOK,
			expectedVotes: map[string][]string{
				"[1][Color] Red":  {"Kalle", "Ralena"},
				"[2][Color] Blue": {"Ralena"},
				"[1][Color] Blue": {"Atreya"},
				"[2][Color] Red":  {"Atreya"},
			},
			expectedVoters: map[string]string{"Ralena": "p3", "Atreya": "p4", "Kalle": "p5"},
		},
		{name: "approval", query: "?type=approval", expectedStatus: http.StatusBadRequest},
		{name: "unknown type", query: "?type=score", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(s.results.GetVotes, "GET", "/tallies/"+tallyID+"/votes"+tt.query, tallyID, "", nil)
			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.VotesResponse
			testutil.AssertJSON(t, w, &resp)
			if diff := cmp.Diff(tt.expectedVotes, resp.Votes); diff != "" {
				t.Errorf("Votes mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.expectedVoters, resp.Voters); diff != "" {
				t.Errorf("Voters mismatch (-want +got):\n%s", diff)
			}
			if !resp.HasRankedVotes {
				t.Error("Expected has_ranked_votes")
			}
			if resp.HasUndo {
				t.Error("Expected no undo history after a run")
			}
		})
	}
}

func TestGetVotesWithPlan(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")
	testutil.AddTestPost(t, s.db, tallyID, "p1", 1, "Kinematics",
		"[x] Plan Northward",
		"-[x] Go north",
		"-[x] Camp by the river",
	)
	testutil.AddTestPost(t, s.db, tallyID, "p2", 2, "Beyogi", "[x] Plan Northward")
	s.run(t, tallyID, editKey)

	w := call(s.results.GetVotes, "GET", "/tallies/"+tallyID+"/votes", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VotesResponse
	testutil.AssertJSON(t, w, &resp)
	if diff := cmp.Diff([]string{"◈Northward"}, resp.PlanNames); diff != "" {
		t.Errorf("Plan names mismatch (-want +got):\n%s", diff)
	}
	for _, vote := range []string{"[x] Go north", "[x] Camp by the river"} {
		supporters := resp.Votes[vote]
		if len(supporters) == 0 || supporters[0] != "◈Northward" {
			t.Errorf("Expected %q to list the plan first, got %v", vote, supporters)
		}
	}
}

func TestGetResults(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")
	s.seedQuest(t, tallyID)

	w := call(s.results.GetResults, "GET", "/tallies/"+tallyID+"/results", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = s.run(t, tallyID, editKey)
	var ran models.ResultSnapshot
	testutil.AssertJSON(t, w, &ran)

	w = call(s.results.GetResults, "GET", "/tallies/"+tallyID+"/results", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var stored models.ResultSnapshot
	testutil.AssertJSON(t, w, &stored)
	if stored.ID != ran.ID {
		t.Errorf("Expected snapshot %q, got %q", ran.ID, stored.ID)
	}
	if diff := cmp.Diff(ran.Tasks, stored.Tasks); diff != "" {
		t.Errorf("Stored tasks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ran.Votes, stored.Votes); diff != "" {
		t.Errorf("Stored votes mismatch (-want +got):\n%s", diff)
	}
	if stored.VoterCount != ran.VoterCount {
		t.Errorf("Expected voter count %d, got %d", ran.VoterCount, stored.VoterCount)
	}
}

func TestGetPreview(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")
	s.seedQuest(t, tallyID)

	w := call(s.results.GetPreview, "GET", "/tallies/"+tallyID+"/preview", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var before models.TallyPreviewResponse
	testutil.AssertJSON(t, w, &before)
	if before.PostCount != 5 {
		t.Errorf("Expected 5 posts, got %d", before.PostCount)
	}
	if before.Status != models.StatusCollecting {
		t.Errorf("Expected status %q, got %q", models.StatusCollecting, before.Status)
	}
	if before.LastRun != "" || before.Winners != nil {
		t.Errorf("Expected no run details before a run, got %+v", before)
	}

	s.run(t, tallyID, editKey)

	w = call(s.results.GetPreview, "GET", "/tallies/"+tallyID+"/preview", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var after models.TallyPreviewResponse
	testutil.AssertJSON(t, w, &after)
	if after.Status != models.StatusTallied {
		t.Errorf("Expected status %q, got %q", models.StatusTallied, after.Status)
	}
	if after.VoterCount != 5 {
		t.Errorf("Expected 5 voters, got %d", after.VoterCount)
	}
	if after.LastRun == "" {
		t.Error("Expected a humanized last_run")
	}
	if diff := cmp.Diff(map[string]string{"Color": "Red"}, after.Winners); diff != "" {
		t.Errorf("Winners mismatch (-want +got):\n%s", diff)
	}
}
