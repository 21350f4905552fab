package gate

import (
	"context"
	"fmt"
	"log"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/retrieval"
)

// #region gate
// Gate decides whether the ranked candidates support a diagnosis.
type Gate struct {
	config   Config
	records  Records
	selector TestSelector
}

// NewGate creates a gate with the given thresholds and collaborators.
func NewGate(config Config, records Records, selector TestSelector) *Gate {
	if config.DifferentialSize <= 0 {
		config.DifferentialSize = DefaultConfig().DifferentialSize
	}
	return &Gate{config: config, records: records, selector: selector}
}

// #endregion gate

// #region tier
// Tier returns the first confidence tier satisfied by (top, second, count),
// or 0 when none is. second is ignored when count < 2.
func (c Config) Tier(top, second float64, count int) int {
	switch {
	case count <= 0:
		return 0
	case top > c.HighScore && (count == 1 || top-second > c.HighMargin):
		return 1
	case top > c.ModerateScore && count >= 2 && top-second > c.ModerateMargin:
		return 2
	case top > c.LoneScore && count == 1:
		return 3
	}
	return 0
}

// Tier applies DefaultConfig thresholds.
func Tier(top, second float64, count int) int {
	return DefaultConfig().Tier(top, second, count)
}

// #endregion tier

// #region classify
// Classify maps ranked candidates to CONFIRMED, NEEDS_DATA or NO_MATCH.
// Collaborator failures degrade the decision; they never surface as errors.
func (g *Gate) Classify(ctx context.Context, symptoms []string, candidates []retrieval.Candidate) Decision {
	if len(candidates) == 0 {
		return Decision{Status: StatusNoMatch, Reason: "no candidates"}
	}

	top := candidates[0]
	var second float64
	if len(candidates) > 1 {
		second = candidates[1].Score
	}

	tier := g.config.Tier(top.Score, second, len(candidates))
	if tier > 0 {
		return g.confirm(ctx, top, tier)
	}
	log.Printf("[GATE] not confident: top=%s %.4f second=%.4f n=%d", top.DiseaseID, top.Score, second, len(candidates))
	return g.needsData(ctx, symptoms, candidates)
}

func (g *Gate) confirm(ctx context.Context, top retrieval.Candidate, tier int) Decision {
	rec, err := g.records.Disease(ctx, top.DiseaseID)
	if err != nil {
		log.Printf("[GATE] confirmed %s but record unavailable: %v", top.DiseaseID, err)
		return Decision{
			Status: StatusNoMatch,
			Tier:   tier,
			Reason: fmt.Sprintf("record missing for confirmed disease %s", top.DiseaseID),
		}
	}
	log.Printf("[GATE] confirmed %s tier=%d score=%.4f", top.DiseaseID, tier, top.Score)
	return Decision{
		Status:  StatusConfirmed,
		Disease: rec,
		Score:   top.Score,
		Tier:    tier,
		Reason:  fmt.Sprintf("tier %d: %s score=%.4f", tier, top.DiseaseID, top.Score),
	}
}

// #endregion classify

// #region needs-data
// needsData builds the follow-up test request from the leading candidates.
func (g *Gate) needsData(ctx context.Context, symptoms []string, candidates []retrieval.Candidate) Decision {
	options := g.testOptions(ctx, candidates)
	if len(options) == 0 {
		return Decision{
			Status:        StatusNeedsData,
			RequiredTests: []string{AdvisoryFurtherEvaluation},
			Reason:        "no diagnostic tests recorded for candidates",
		}
	}

	tests, err := g.selector.SelectTests(ctx, symptoms, options)
	if err != nil {
		log.Printf("[GATE] test selection failed: %v", err)
		return Decision{
			Status:        StatusNeedsData,
			RequiredTests: []string{AdvisorySelectionFailed},
			Reason:        fmt.Sprintf("test selection failed: %v", err),
		}
	}
	if len(tests) == 0 {
		tests = []string{AdvisoryFurtherEvaluation}
	}
	return Decision{
		Status:        StatusNeedsData,
		RequiredTests: tests,
		Reason:        fmt.Sprintf("differential over %d candidates", len(options)),
	}
}

// testOptions collects test names for the top candidates, in rank order.
// Candidates without a record or without tests are skipped.
func (g *Gate) testOptions(ctx context.Context, candidates []retrieval.Candidate) []codec.TestOption {
	n := min(len(candidates), g.config.DifferentialSize)
	var options []codec.TestOption
	for _, c := range candidates[:n] {
		rec, err := g.records.Disease(ctx, c.DiseaseID)
		if err != nil {
			log.Printf("[GATE] skip %s: %v", c.DiseaseID, err)
			continue
		}
		tests := rec.TestNames()
		if len(tests) == 0 {
			continue
		}
		name := rec.Name
		if name == "" {
			name = rec.ID
		}
		options = append(options, codec.TestOption{Disease: name, Tests: tests})
	}
	return options
}

// #endregion needs-data
