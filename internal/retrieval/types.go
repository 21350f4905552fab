package retrieval

import (
	"context"
	"errors"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// ErrIndexUnavailable marks a failed symptom query. Callers treat it like an
// empty result but can tell the two apart when logging.
var ErrIndexUnavailable = errors.New("similarity index unavailable")

// #region config
// Config holds limits for disease retrieval.
type Config struct {
	TopK        int    // fragment hits requested per query
	QueryPrefix string // prepended to the joined symptom list
}

// DefaultConfig returns the defaults used against the symptom index.
func DefaultConfig() Config {
	return Config{
		TopK:        5,
		QueryPrefix: "Patient symptoms: ",
	}
}

// #endregion config

// #region candidate
// Candidate is a disease surfaced by retrieval with its aggregate score.
type Candidate struct {
	DiseaseID string
	Score     float64
	Hits      int // fragments that contributed to Score
}

// #endregion candidate

// #region index
// Index is the symptom-fragment search the scorer depends on.
type Index interface {
	SearchDiseases(ctx context.Context, queryText string, topK int) ([]codec.Hit, error)
}

// #endregion index
