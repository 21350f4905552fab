package treatment

import (
	"context"
	"log"
	"sort"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/report"
)

// #region service
// Service finds a medicine that is safe for the patient and turns the
// result into a treatment report.
type Service struct {
	config  Config
	index   Index
	records Records
	judge   Judge
	planner Planner
}

// NewService wires the medicine search collaborators.
func NewService(config Config, index Index, records Records, judge Judge, planner Planner) *Service {
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}
	return &Service{config: config, index: index, records: records, judge: judge, planner: planner}
}

// #endregion service

// #region order
// OrderCandidates reduces indication hits to medicine ids: one entry per
// medicine at its best score, sorted by score descending, then id ascending.
func OrderCandidates(hits []codec.Hit) []string {
	best := make(map[string]float64)
	for _, h := range hits {
		if h.OwnerID == "" {
			continue
		}
		if s, ok := best[h.OwnerID]; !ok || h.Score() > s {
			best[h.OwnerID] = h.Score()
		}
	}

	ids := make([]string, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		if best[ids[a]] != best[ids[b]] {
			return best[ids[a]] > best[ids[b]]
		}
		return ids[a] < ids[b]
	})
	return ids
}

// #endregion order

// #region find-safe
// FindSafe walks the ordered candidates for diseaseID and stops at the first
// one judged safe. Unreadable records and failed judgments are skipped. Only
// the first rejection reason is kept.
func (s *Service) FindSafe(ctx context.Context, diseaseID string, profile codec.Profile, symptoms []string) Outcome {
	hits, err := s.index.SearchMedicines(ctx, diseaseID, s.config.TopK)
	if err != nil {
		log.Printf("[RX] medicine search for %s failed: %v", diseaseID, err)
		return Outcome{Status: StatusNoCandidates}
	}
	ids := OrderCandidates(hits)
	if len(ids) == 0 {
		log.Printf("[RX] no medicine found for %s", diseaseID)
		return Outcome{Status: StatusNoCandidates}
	}

	out := Outcome{Candidates: ids}
	for _, id := range ids {
		drug, err := s.records.Medicine(ctx, id)
		if err != nil {
			log.Printf("[RX] skip %s: %v", id, err)
			out.Skipped++
			continue
		}

		verdict, err := s.judge.JudgeSafety(ctx, profile, drug.Raw, symptoms)
		if err != nil {
			log.Printf("[RX] safety check for %s failed: %v", id, err)
			out.Skipped++
			continue
		}
		out.Judged++

		if verdict.IsSafe {
			out.Status = StatusSelected
			out.Drug = drug
			log.Printf("[RX] selected %s after %d checks", id, out.Judged)
			return out
		}

		out.Rejected++
		if out.FirstRejection == "" {
			out.FirstRejection = verdict.ConflictReason
			if out.FirstRejection == "" {
				out.FirstRejection = UnknownConflict
			}
		}
		log.Printf("[RX] rejected %s: %s", id, verdict.ConflictReason)
	}

	out.Status = StatusAllContraindicated
	if out.FirstRejection == "" {
		out.FirstRejection = UnknownConflict
	}
	return out
}

// #endregion find-safe

// #region report
// Report turns a search outcome into the confirmed-diagnosis report,
// generating the full plan when a medicine was selected.
func (s *Service) Report(ctx context.Context, disease catalog.DiseaseRecord, diagnosis string, score float64, out Outcome, patientInfo map[string]any) report.Report {
	switch out.Status {
	case StatusNoCandidates:
		return report.NoMedicine(diagnosis, score)
	case StatusAllContraindicated:
		return report.AllContraindicated(diagnosis, score, out.FirstRejection)
	}

	var rejection string
	if out.Alternative() {
		rejection = out.FirstRejection
	}

	plan, err := s.planner.GeneratePlan(ctx, disease.Raw, out.Drug.Raw, patientInfo)
	if err != nil {
		log.Printf("[RX] plan generation for %s failed: %v", out.Drug.ID, err)
		return report.PlanFailed(diagnosis, score, out.Drug.GenericName, rejection)
	}
	return report.Treated(diagnosis, score, out.Drug.GenericName, plan, rejection)
}

// #endregion report
