package gate

import (
	"context"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #region status
// Status is the terminal classification of a request.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusNeedsData Status = "NEEDS_DATA"
	StatusNoMatch   Status = "NO_MATCH"
)

// Fixed test lists returned on NEEDS_DATA when no selection could be made.
const (
	AdvisoryFurtherEvaluation = "Further clinical evaluation needed."
	AdvisorySelectionFailed   = "Error processing diagnostic tests"
)

// UnknownDiseaseName is reported when a confirmed record has no display name.
const UnknownDiseaseName = "Unknown Disease"

// #endregion status

// #region gate-config
// Config holds the tier thresholds. All comparisons are strict.
type Config struct {
	HighScore        float64 // tier 1 minimum top score
	HighMargin       float64 // tier 1 minimum lead over the runner-up
	ModerateScore    float64 // tier 2 minimum top score
	ModerateMargin   float64 // tier 2 minimum lead over the runner-up
	LoneScore        float64 // tier 3 minimum score for a single candidate
	DifferentialSize int     // candidates consulted for follow-up tests
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		HighScore:        0.8,
		HighMargin:       0.2,
		ModerateScore:    0.65,
		ModerateMargin:   0.15,
		LoneScore:        0.5,
		DifferentialSize: 3,
	}
}

// #endregion gate-config

// #region decision
// Decision is the gate output. Disease and Score are set only when
// Status is StatusConfirmed; RequiredTests only for StatusNeedsData.
type Decision struct {
	Status        Status
	Disease       catalog.DiseaseRecord
	Score         float64
	Tier          int // 1-3 when confident, 0 otherwise
	RequiredTests []string
	Reason        string // human-readable explanation for the decision log
}

// DiseaseName returns the display name of the confirmed disease.
func (d Decision) DiseaseName() string {
	if d.Disease.Name == "" {
		return UnknownDiseaseName
	}
	return d.Disease.Name
}

// #endregion decision

// #region interfaces
// Records looks up disease documents.
type Records interface {
	Disease(ctx context.Context, id string) (catalog.DiseaseRecord, error)
}

// TestSelector picks follow-up tests among the candidates' options.
type TestSelector interface {
	SelectTests(ctx context.Context, symptoms []string, options []codec.TestOption) ([]string, error)
}

// #endregion interfaces
