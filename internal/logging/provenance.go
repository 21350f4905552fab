package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoDecision is returned when no entry exists for a request id.
var ErrNoDecision = errors.New("no decision logged")

// #region log-decision
// LogDecision writes a decision entry to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (request_id, status, diagnosis_id, score, tier, reason, signals_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.Status,
		nullIfEmpty(entry.DiagnosisID),
		entry.Score,
		entry.Tier,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.SignalsJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region list-recent
const selectColumns = `SELECT id, request_id, status, diagnosis_id, score, tier, reason, signals_json, created_at
		 FROM decision_log`

// ListRecent returns the newest decision entries first.
func ListRecent(db *sql.DB, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(selectColumns+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []DecisionEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FindByRequest returns the entry written for requestID.
func FindByRequest(db *sql.DB, requestID string) (DecisionEntry, error) {
	e, err := scanEntry(db.QueryRow(selectColumns+` WHERE request_id = ?`, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return DecisionEntry{}, fmt.Errorf("request %s: %w", requestID, ErrNoDecision)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (DecisionEntry, error) {
	var e DecisionEntry
	var diagnosisID, reason, signals sql.NullString
	var createdStr string
	if err := row.Scan(&e.ID, &e.RequestID, &e.Status, &diagnosisID, &e.Score, &e.Tier,
		&reason, &signals, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DecisionEntry{}, err
		}
		return DecisionEntry{}, fmt.Errorf("scan row: %w", err)
	}
	e.DiagnosisID = diagnosisID.String
	e.Reason = reason.String
	e.SignalsJSON = signals.String
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return e, nil
}

// #endregion list-recent

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
