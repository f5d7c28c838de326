// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/quest-tally/auth"
	"github.com/danielhkuo/quest-tally/models"
	"github.com/danielhkuo/quest-tally/testutil"
)

func TestCreateTally(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{"valid", models.CreateTallyRequest{Title: "Forge Quest"}, http.StatusCreated},
		{"with settings", models.CreateTallyRequest{Title: "Forge Quest", StartPost: 12, PartitionMode: "block", Method: "schulze", Tasks: []string{"Color"}}, http.StatusCreated},
		{"method alias", models.CreateTallyRequest{Title: "Forge Quest", Method: "instant-runoff"}, http.StatusCreated},
		{"missing title", models.CreateTallyRequest{Title: "   "}, http.StatusBadRequest},
		{"negative start post", models.CreateTallyRequest{Title: "Forge Quest", StartPost: -1}, http.StatusBadRequest},
		{"bad partition", models.CreateTallyRequest{Title: "Forge Quest", PartitionMode: "paragraph"}, http.StatusBadRequest},
		{"bad method", models.CreateTallyRequest{Title: "Forge Quest", Method: "plurality"}, http.StatusBadRequest},
		{"invalid json", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(s.tallies.CreateTally, "POST", "/tallies", "", "", tt.body)
			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.CreateTallyResponse
			testutil.AssertJSON(t, w, &resp)
			if !auth.ValidID(resp.TallyID) {
				t.Errorf("Expected a UUID tally_id, got %q", resp.TallyID)
			}
			if err := auth.ValidateEditKey(resp.TallyID, resp.EditKey, s.cfg.EditKeySalt); err != nil {
				t.Errorf("Expected a valid edit key, got error: %v", err)
			}
		})
	}
}

func TestCreateTallyStoresSettings(t *testing.T) {
	s := newTestServer(t)

	w := call(s.tallies.CreateTally, "POST", "/tallies", "", "", models.CreateTallyRequest{
		Title:         "Forge Quest",
		StartPost:     4,
		PartitionMode: "Block",
		Method:        "irv",
		Tasks:         []string{"Color", "Size"},
	})
	testutil.AssertStatus(t, w, http.StatusCreated)
	var resp models.CreateTallyResponse
	testutil.AssertJSON(t, w, &resp)

	tally, err := loadTally(s.db, resp.TallyID)
	if err != nil {
		t.Fatalf("Failed to load tally: %v", err)
	}
	if tally.Title != "Forge Quest" || tally.StartPost != 4 {
		t.Errorf("Unexpected tally: %+v", tally)
	}
	if tally.PartitionMode != "block" {
		t.Errorf("Expected partition mode 'block', got %q", tally.PartitionMode)
	}
	if tally.Method != "irv" {
		t.Errorf("Expected method 'irv', got %q", tally.Method)
	}
	if tally.Status != models.StatusCollecting {
		t.Errorf("Expected status %q, got %q", models.StatusCollecting, tally.Status)
	}
	if diff := cmp.Diff([]string{"Color", "Size"}, tally.Tasks); diff != "" {
		t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
	}
	if tally.FinalSnapshotID != nil {
		t.Errorf("Expected no snapshot, got %q", *tally.FinalSnapshotID)
	}
}

func TestSubmitPosts(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")

	post := func(id string, number int, author string, lines ...string) models.PostInput {
		return models.PostInput{ID: id, Number: number, Author: author, Lines: lines}
	}

	tests := []struct {
		name           string
		tallyID        string
		editKey        string
		body           any
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "stores posts",
			tallyID:        tallyID,
			editKey:        editKey,
			body:           models.SubmitPostsRequest{Posts: []models.PostInput{post("p1", 1, "Kinematics", "[x] Go north"), post("p2", 2, "Beyogi", "[x] Go south")}},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "resubmitting replaces",
			tallyID:        tallyID,
			editKey:        editKey,
			body:           models.SubmitPostsRequest{Posts: []models.PostInput{post("p2", 2, "Beyogi", "[x] Go north")}},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "missing edit key",
			tallyID:        tallyID,
			body:           models.SubmitPostsRequest{Posts: []models.PostInput{post("p3", 3, "Kalle", "[x] Wait")}},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong edit key",
			tallyID:        tallyID,
			editKey:        "not-the-key",
			body:           models.SubmitPostsRequest{Posts: []models.PostInput{post("p3", 3, "Kalle", "[x] Wait")}},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "no posts",
			tallyID:        tallyID,
			editKey:        editKey,
			body:           models.SubmitPostsRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing author",
			tallyID:        tallyID,
			editKey:        editKey,
			body:           models.SubmitPostsRequest{Posts: []models.PostInput{post("p3", 3, " ", "[x] Wait")}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zero post number",
			tallyID:        tallyID,
			editKey:        editKey,
			body:           models.SubmitPostsRequest{Posts: []models.PostInput{post("p3", 0, "Kalle", "[x] Wait")}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown tally",
			tallyID:        "00000000-0000-4000-8000-000000000000",
			editKey:        auth.GenerateEditKey("00000000-0000-4000-8000-000000000000", testutil.GetTestConfig().EditKeySalt),
			body:           models.SubmitPostsRequest{Posts: []models.PostInput{post("p1", 1, "Kalle", "[x] Wait")}},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(s.tallies.SubmitPosts, "POST", "/tallies/"+tt.tallyID+"/posts", tt.tallyID, tt.editKey, tt.body)
			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.SubmitPostsResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.PostCount != tt.expectedCount {
				t.Errorf("Expected post count %d, got %d", tt.expectedCount, resp.PostCount)
			}
		})
	}

	var body string
	if err := s.db.QueryRow(`SELECT body FROM tally_post WHERE tally_id = $1 AND post_id = 'p2'`, tallyID).Scan(&body); err != nil {
		t.Fatalf("Failed to read post: %v", err)
	}
	if body != "[x] Go north" {
		t.Errorf("Expected replaced body, got %q", body)
	}
}

func TestRunTally(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest", "Size")
	s.seedQuest(t, tallyID)

	w := s.run(t, tallyID, editKey)

	var snap models.ResultSnapshot
	testutil.AssertJSON(t, w, &snap)

	if snap.Method != "baldwin" {
		t.Errorf("Expected method 'baldwin', got %q", snap.Method)
	}
	if snap.VoterCount != 5 {
		t.Errorf("Expected 5 voters, got %d", snap.VoterCount)
	}

	wantVotes := map[string][]string{
		"[x] Go north":         {"Beyogi", "Kinematics"},
		"[x] Fight the dragon": {"Kinematics"},
	}
	if diff := cmp.Diff(wantVotes, snap.Votes); diff != "" {
		t.Errorf("Votes mismatch (-want +got):\n%s", diff)
	}

	wantTasks := []models.TaskResult{
		{Task: "Color", Ranking: []string{"Red", "Blue"}, Ballots: 3},
		{Task: "Size", Ranking: []string{}},
	}
	if diff := cmp.Diff(wantTasks, snap.Tasks); diff != "" {
		t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
	}

	tally, err := loadTally(s.db, tallyID)
	if err != nil {
		t.Fatalf("Failed to load tally: %v", err)
	}
	if tally.Status != models.StatusTallied {
		t.Errorf("Expected status %q, got %q", models.StatusTallied, tally.Status)
	}
	if tally.FinalSnapshotID == nil || *tally.FinalSnapshotID != snap.ID {
		t.Errorf("Expected final snapshot %q, got %v", snap.ID, tally.FinalSnapshotID)
	}
}

func TestRunTallyMethodOverride(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")
	s.seedQuest(t, tallyID)

	tests := []struct {
		method   string
		expected []string
	}{
		{"borda", []string{"Blue", "Red"}},
		{"irv", []string{"Red", "Blue"}},
		{"", []string{"Red", "Blue"}},
	}

	for _, tt := range tests {
		t.Run("method "+tt.method, func(t *testing.T) {
			w := call(s.tallies.RunTally, "POST", "/tallies/"+tallyID+"/run", tallyID, editKey,
				models.RunTallyRequest{Method: tt.method})
			testutil.AssertStatus(t, w, http.StatusOK)

			var snap models.ResultSnapshot
			testutil.AssertJSON(t, w, &snap)
			if len(snap.Tasks) != 1 {
				t.Fatalf("Expected 1 task, got %d", len(snap.Tasks))
			}
			if diff := cmp.Diff(tt.expected, snap.Tasks[0].Ranking); diff != "" {
				t.Errorf("Ranking mismatch (-want +got):\n%s", diff)
			}
		})
	}

	w := call(s.tallies.RunTally, "POST", "/tallies/"+tallyID+"/run", tallyID, editKey,
		models.RunTallyRequest{Method: "plurality"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestRunTallyStartPost(t *testing.T) {
	s := newTestServer(t)

	w := call(s.tallies.CreateTally, "POST", "/tallies", "", "", models.CreateTallyRequest{
		Title:     "Forge Quest",
		StartPost: 2,
	})
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.CreateTallyResponse
	testutil.AssertJSON(t, w, &created)

	testutil.AddTestPost(t, s.db, created.TallyID, "p1", 1, "Kinematics", "[x] Last turn's vote")
	testutil.AddTestPost(t, s.db, created.TallyID, "p2", 2, "Beyogi", "[x] Go north")

	w = s.run(t, created.TallyID, created.EditKey)
	var snap models.ResultSnapshot
	testutil.AssertJSON(t, w, &snap)

	want := map[string][]string{"[x] Go north": {"Beyogi"}}
	if diff := cmp.Diff(want, snap.Votes); diff != "" {
		t.Errorf("Votes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTallyPostOrder(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")

	// Inserted out of order; the later post number wins
	testutil.AddTestPost(t, s.db, tallyID, "p9", 9, "Kinematics", "[x] Go south")
	testutil.AddTestPost(t, s.db, tallyID, "p3", 3, "Kinematics", "[x] Go north")

	w := s.run(t, tallyID, editKey)
	var snap models.ResultSnapshot
	testutil.AssertJSON(t, w, &snap)

	want := map[string][]string{"[x] Go south": {"Kinematics"}}
	if diff := cmp.Diff(want, snap.Votes); diff != "" {
		t.Errorf("Votes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTallyErrors(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")

	w := call(s.tallies.RunTally, "POST", "/tallies/"+tallyID+"/run", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	missing := "00000000-0000-4000-8000-000000000000"
	w = call(s.tallies.RunTally, "POST", "/tallies/"+missing+"/run", missing,
		auth.GenerateEditKey(missing, s.cfg.EditKeySalt), nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	// An empty thread still produces a snapshot
	w = s.run(t, tallyID, editKey)
	var snap models.ResultSnapshot
	testutil.AssertJSON(t, w, &snap)
	if snap.VoterCount != 0 || len(snap.Votes) != 0 || len(snap.Tasks) != 0 {
		t.Errorf("Expected an empty snapshot, got %+v", snap)
	}
}

func TestRunTallySaveFailureClosesEdits(t *testing.T) {
	s := newTestServer(t)
	tallyID, editKey := testutil.CreateTestTally(t, s.db, s.cfg, "Forge Quest")
	s.seedQuest(t, tallyID)
	s.run(t, tallyID, editKey)
	s.breakSnapshots(t)

	w := call(s.tallies.RunTally, "POST", "/tallies/"+tallyID+"/run", tallyID, editKey, nil)
	testutil.AssertStatus(t, w, http.StatusInternalServerError)

	w = call(s.results.GetVotes, "GET", "/tallies/"+tallyID+"/votes", tallyID, "", nil)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = call(s.edits.Delete, "POST", "/tallies/"+tallyID+"/delete", tallyID, editKey,
		models.DeleteRequest{Vote: "[x] Go north"})
	testutil.AssertStatus(t, w, http.StatusConflict)
}
