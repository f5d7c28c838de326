// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quest-tally/auth"
	"github.com/danielhkuo/quest-tally/cliparse"
	"github.com/danielhkuo/quest-tally/db"
	"github.com/danielhkuo/quest-tally/rank"
)

// SetupTestDB creates a fresh sqlite database with the full schema. The
// file lives in the test's temp dir and is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   ":memory:",
		DatabaseType:  "sqlite",
		EditKeySalt:   "test-edit-salt",
		DefaultMethod: rank.Default,
	}
}

// CreateTestTally inserts a collecting tally and returns its ID and edit key
func CreateTestTally(t *testing.T, conn *sql.DB, cfg cliparse.Config, title string, tasks ...string) (tallyID, editKey string) {
	t.Helper()

	tallyID, err := auth.GenerateID()
	if err != nil {
		t.Fatalf("Failed to generate tally ID: %v", err)
	}
	editKey = auth.GenerateEditKey(tallyID, cfg.EditKeySalt)

	tasksJSON, _ := json.Marshal(append([]string{}, tasks...))
	_, err = conn.Exec(`
		INSERT INTO tally (id, title, start_post, partition_mode, method, tasks, status, created_at)
		VALUES ($1, $2, 0, 'line', $3, $4, 'collecting', $5)
	`, tallyID, title, cfg.DefaultMethod.String(), string(tasksJSON), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test tally: %v", err)
	}

	return tallyID, editKey
}

// AddTestPost stores one post of a tally
func AddTestPost(t *testing.T, conn *sql.DB, tallyID, postID string, number int, author string, lines ...string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO tally_post (tally_id, post_id, number, author, body)
		VALUES ($1, $2, $3, $4, $5)
	`, tallyID, postID, number, author, strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
