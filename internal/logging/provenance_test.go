package logging

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE decision_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id   TEXT NOT NULL,
		status       TEXT NOT NULL,
		diagnosis_id TEXT,
		score        REAL NOT NULL DEFAULT 0,
		tier         INTEGER NOT NULL DEFAULT 0,
		reason       TEXT,
		signals_json TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)

	entry := DecisionEntry{
		RequestID:   "req-1",
		Status:      "CONFIRMED",
		DiagnosisID: "D001",
		Score:       1.8,
		Tier:        1,
		Reason:      "tier 1: D001 score=1.8000",
		SignalsJSON: `{"symptoms":["fever"]}`,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogDecision(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM decision_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var status string
	var diagnosis sql.NullString
	db.QueryRow("SELECT status, diagnosis_id FROM decision_log").Scan(&status, &diagnosis)
	if status != "CONFIRMED" || diagnosis.String != "D001" {
		t.Errorf("unexpected row status=%q diagnosis=%q", status, diagnosis.String)
	}
}

func TestLogDecision_ZeroCreatedAtAndNulls(t *testing.T) {
	db := setupDB(t)

	before := time.Now().UTC()
	if err := LogDecision(db, DecisionEntry{RequestID: "req-2", Status: "NO_MATCH"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdStr string
	var diagnosis sql.NullString
	db.QueryRow("SELECT created_at, diagnosis_id FROM decision_log").Scan(&createdStr, &diagnosis)
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if created.Before(before.Add(-time.Second)) {
		t.Errorf("created_at %v should be filled with now", created)
	}
	if diagnosis.Valid {
		t.Errorf("empty diagnosis should be stored as NULL")
	}
}

func TestLogDecision_MissingTable(t *testing.T) {
	db, _ := sql.Open("sqlite", filepath.Join(t.TempDir(), "empty.db"))
	defer db.Close()

	if err := LogDecision(db, DecisionEntry{RequestID: "r", Status: "NO_MATCH"}); err == nil {
		t.Fatal("expected error without decision_log table")
	}
}

// #endregion log-decision-tests

// #region list-recent-tests
func TestListRecent_NewestFirst(t *testing.T) {
	db := setupDB(t)
	for _, id := range []string{"a", "b", "c"} {
		LogDecision(db, DecisionEntry{RequestID: id, Status: "NEEDS_DATA"})
	}

	entries, err := ListRecent(db, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RequestID != "c" || entries[1].RequestID != "b" {
		t.Errorf("unexpected order %q, %q", entries[0].RequestID, entries[1].RequestID)
	}
	if entries[0].DiagnosisID != "" || entries[0].CreatedAt.IsZero() {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}

func TestFindByRequest(t *testing.T) {
	db := setupDB(t)
	LogDecision(db, DecisionEntry{RequestID: "abc", Status: "CONFIRMED", DiagnosisID: "D1", Tier: 1})

	e, err := FindByRequest(db, "abc")
	if err != nil {
		t.Fatalf("FindByRequest: %v", err)
	}
	if e.DiagnosisID != "D1" || e.Tier != 1 {
		t.Errorf("unexpected entry %+v", e)
	}

	if _, err := FindByRequest(db, "missing"); !errors.Is(err, ErrNoDecision) {
		t.Errorf("expected ErrNoDecision, got %v", err)
	}
}

// #endregion list-recent-tests
