package treatment

import (
	"context"
	"encoding/json"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #region status
// Status is the outcome of the medication search.
type Status string

const (
	StatusSelected           Status = "SELECTED"
	StatusNoCandidates       Status = "NO_CANDIDATES"
	StatusAllContraindicated Status = "ALL_CONTRAINDICATED"
)

// UnknownConflict stands in for a rejection that carried no reason.
const UnknownConflict = "Unknown conflict"

// #endregion status

// #region config
// Config holds limits for the medicine search.
type Config struct {
	TopK int // indication fragments requested per disease
}

// DefaultConfig returns the defaults used against the medicine index.
func DefaultConfig() Config {
	return Config{TopK: 10}
}

// #endregion config

// #region outcome
// Outcome is the result of FindSafe.
type Outcome struct {
	Status         Status
	Drug           catalog.MedicineRecord // set when Status is StatusSelected
	FirstRejection string                 // reason of the first unsafe verdict, "" if none
	Candidates     []string               // medicine ids in evaluation order
	Judged         int                    // safety calls that returned a verdict
	Rejected       int
	Skipped        int // record misses and judge errors
}

// Alternative reports whether an earlier candidate was refused before the
// selected one, which makes the selection an alternative prescription.
func (o Outcome) Alternative() bool {
	return o.Status == StatusSelected && o.Rejected > 0
}

// #endregion outcome

// #region interfaces
// Index searches medicine indications by disease id.
type Index interface {
	SearchMedicines(ctx context.Context, diseaseID string, topK int) ([]codec.Hit, error)
}

// Records looks up medicine documents.
type Records interface {
	Medicine(ctx context.Context, id string) (catalog.MedicineRecord, error)
}

// Judge evaluates one medicine against the patient.
type Judge interface {
	JudgeSafety(ctx context.Context, profile codec.Profile, drug json.RawMessage, symptoms []string) (codec.Verdict, error)
}

// Planner generates the treatment plan for the selected medicine.
type Planner interface {
	GeneratePlan(ctx context.Context, disease, drug json.RawMessage, patientInfo map[string]any) (codec.Plan, error)
}

// #endregion interfaces
