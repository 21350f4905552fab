package orchestrator

// #region imports
import (
	"context"
	"errors"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #endregion

// #region errors

// ErrExtraction is returned when the symptom profile could not be extracted.
// It is the only failure surfaced to callers; every later stage degrades to
// a report.
var ErrExtraction = errors.New("profile extraction failed")

// StatusError is the decision log status for requests that produced no report.
const StatusError = "ERROR"

// #endregion

// #region request

// Request is one analysis request. LabReports is forwarded to extraction
// under the "lab_reports" key of the info object.
type Request struct {
	SymptomsText string
	LabReports   map[string]any
	PatientInfo  map[string]any
}

// #endregion

// #region extractor

// Extractor turns free text into a structured symptom profile.
type Extractor interface {
	ExtractProfile(ctx context.Context, text string, info map[string]any) (codec.Profile, error)
}

// #endregion
