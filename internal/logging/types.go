package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	ID          int64
	RequestID   string
	Status      string // "CONFIRMED" | "NEEDS_DATA" | "NO_MATCH" | "ERROR"
	DiagnosisID string
	Score       float64
	Tier        int
	Reason      string
	SignalsJSON string
	CreatedAt   time.Time
}

// #endregion decision-entry

// #region decision-record
// DecisionRecord captures the inputs and intermediate results of one request.
// Serialized as JSON into decision_log.signals_json.
type DecisionRecord struct {
	Symptoms   []string          `json:"symptoms"`
	Candidates []CandidateRecord `json:"candidates,omitempty"`
	IndexError string            `json:"index_error,omitempty"`

	RequiredTests []string `json:"required_tests,omitempty"`

	// Medicine search, present only on confirmed diagnoses
	MedicineStatus     string   `json:"medicine_status,omitempty"`
	MedicineCandidates []string `json:"medicine_candidates,omitempty"`
	SelectedMedicine   string   `json:"selected_medicine,omitempty"`
	FirstRejection     string   `json:"first_rejection,omitempty"`
	Judged             int      `json:"judged,omitempty"`
	Skipped            int      `json:"skipped,omitempty"`
}

// CandidateRecord is one ranked disease candidate.
type CandidateRecord struct {
	DiseaseID string  `json:"disease_id"`
	Score     float64 `json:"score"`
	Hits      int     `json:"hits"`
}

// #endregion decision-record
