package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #region scorer
// Scorer turns a symptom set into ranked disease candidates.
type Scorer struct {
	index  Index
	config Config
}

// NewScorer creates a Scorer over the given index.
func NewScorer(index Index, config Config) *Scorer {
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}
	return &Scorer{index: index, config: config}
}

// #endregion scorer

// #region score
// Score issues one similarity query built from symptoms (in the order given)
// and ranks the owning diseases by summed similarity.
//
// No symptoms means no query and no candidates. A failed query returns no
// candidates and an error wrapping ErrIndexUnavailable.
func (s *Scorer) Score(ctx context.Context, symptoms []string) ([]Candidate, error) {
	if len(symptoms) == 0 {
		return nil, nil
	}

	query := BuildQuery(s.config.QueryPrefix, symptoms)
	hits, err := s.index.SearchDiseases(ctx, query, s.config.TopK)
	if err != nil {
		log.Printf("[SCORE] index query failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	candidates := Aggregate(hits)
	log.Printf("[SCORE] %d hits -> %d candidates", len(hits), len(candidates))
	return candidates, nil
}

// #endregion score

// #region aggregate
// Aggregate sums hit scores per owning disease and sorts descending.
// Ties keep the order in which each disease first appeared in hits.
// Hits without an owner are ignored.
func Aggregate(hits []codec.Hit) []Candidate {
	index := make(map[string]int)
	var out []Candidate
	for _, h := range hits {
		if h.OwnerID == "" {
			continue
		}
		i, ok := index[h.OwnerID]
		if !ok {
			i = len(out)
			index[h.OwnerID] = i
			out = append(out, Candidate{DiseaseID: h.OwnerID})
		}
		out[i].Score += h.Score()
		out[i].Hits++
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

// BuildQuery joins symptoms into the composite query text.
func BuildQuery(prefix string, symptoms []string) string {
	return prefix + strings.Join(symptoms, ", ")
}

// #endregion aggregate
