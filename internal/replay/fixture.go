package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a shared
// catalog plus scripted collaborator replies per case.
type Fixture struct {
	Description string            `json:"description"`
	Diseases    []json.RawMessage `json:"diseases"`
	Medicines   []json.RawMessage `json:"medicines"`
	Cases       []FixtureCase     `json:"cases"`
}

// FixtureCase is one request with the replies every collaborator gives for it.
type FixtureCase struct {
	Name    string         `json:"name"`
	Request FixtureRequest `json:"request"`

	Profile         codec.Profile `json:"profile"`
	ExtractionError string        `json:"extraction_error,omitempty"`

	DiseaseHits  []codec.Hit            `json:"disease_hits"`
	IndexError   string                 `json:"index_error,omitempty"`
	MedicineHits map[string][]codec.Hit `json:"medicine_hits,omitempty"`

	SelectedTests []string                 `json:"selected_tests,omitempty"`
	Verdicts      map[string]codec.Verdict `json:"verdicts,omitempty"`
	Plan          *codec.Plan              `json:"plan,omitempty"`
	PlanError     string                   `json:"plan_error,omitempty"`

	Expected FixtureExpected `json:"expected"`
}

// FixtureRequest mirrors the POST /analyze body.
type FixtureRequest struct {
	SymptomsText string         `json:"symptoms_text"`
	LabReports   map[string]any `json:"lab_reports,omitempty"`
	PatientInfo  map[string]any `json:"patient_info,omitempty"`
}

// FixtureExpected captures the report properties checked per case.
type FixtureExpected struct {
	Error           bool     `json:"error,omitempty"`
	Diagnosis       string   `json:"diagnosis"`
	Prescription    string   `json:"prescription,omitempty"`
	Alternative     string   `json:"alternative,omitempty"`
	WarningContains string   `json:"warning_contains,omitempty"`
	Tests           []string `json:"tests,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// #endregion fixture-loader
