package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("record not found")

// #region disease-record
// Symptom is one indexed symptom entry of a disease.
type Symptom struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// DiagnosticTest names a test that helps confirm a disease.
type DiagnosticTest struct {
	TestName string `json:"test_name"`
}

// DiseaseRecord is the typed view of a disease document. Raw keeps the full
// document as stored.
type DiseaseRecord struct {
	ID              string           `json:"disease_id"`
	Name            string           `json:"disease_name"`
	Symptoms        []Symptom        `json:"symptoms"`
	DiagnosticTests []DiagnosticTest `json:"diagnostic_tests"`
	Raw             json.RawMessage  `json:"-"`
}

// TestNames returns the non-empty test names in document order.
func (d DiseaseRecord) TestNames() []string {
	var names []string
	for _, t := range d.DiagnosticTests {
		if t.TestName != "" {
			names = append(names, t.TestName)
		}
	}
	return names
}

// ParseDisease decodes a disease document. disease_id is required.
func ParseDisease(raw []byte) (DiseaseRecord, error) {
	var rec DiseaseRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return DiseaseRecord{}, fmt.Errorf("decode disease: %w", err)
	}
	if rec.ID == "" {
		return DiseaseRecord{}, fmt.Errorf("decode disease: missing disease_id")
	}
	rec.Raw = append(json.RawMessage(nil), raw...)
	return rec, nil
}

// #endregion disease-record

// #region medicine-record
// MedicineRecord is the typed view of a medicine document. Contraindications,
// interactions and adverse effects stay in Raw for the safety judge.
type MedicineRecord struct {
	ID          string          `json:"drug_id"`
	GenericName string          `json:"generic_name"`
	Indications []string        `json:"indications"`
	Raw         json.RawMessage `json:"-"`
}

// ParseMedicine decodes a medicine document. drug_id is required.
func ParseMedicine(raw []byte) (MedicineRecord, error) {
	var rec MedicineRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return MedicineRecord{}, fmt.Errorf("decode medicine: %w", err)
	}
	if rec.ID == "" {
		return MedicineRecord{}, fmt.Errorf("decode medicine: missing drug_id")
	}
	rec.Raw = append(json.RawMessage(nil), raw...)
	return rec, nil
}

// #endregion medicine-record
