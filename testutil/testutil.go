package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"bitbucket.org/parqueoasis/tambola/db"
	"bitbucket.org/parqueoasis/tambola/models"
	"bitbucket.org/parqueoasis/tambola/tambola"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SetupTestDB opens a fresh sqlite database in a temp dir with the schema applied.
func SetupTestDB(t *testing.T) (*sqlx.DB, *db.DB) {
	t.Helper()

	conn, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "tambola.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	storage, err := db.New(conn)
	if err != nil {
		t.Fatalf("Failed to wrap test database: %v", err)
	}

	return conn, storage
}

// CreateTestPlayer stores a player with a seeded ticket for deviceID.
func CreateTestPlayer(t *testing.T, storage db.Storage, name, deviceID string) *models.Player {
	t.Helper()

	player, err := storage.InsertPlayer(&models.InsertPlayerOpts{
		Name:     name,
		DeviceID: deviceID,
		Code:     "code-" + deviceID,
		Ticket:   tambola.NewSeededGenerator(uint64(len(deviceID))).Generate(),
	})
	if err != nil {
		t.Fatalf("Failed to create test player: %v", err)
	}

	return player
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
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
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
