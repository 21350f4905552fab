package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/gate"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/orchestrator"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/report"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/retrieval"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/treatment"
)

// #region types

// Result captures the outcome of replaying one fixture case.
type Result struct {
	Name   string
	Report report.Report
	Err    error
	Diffs  []string
}

// Match reports whether the case produced its expected report.
func (r Result) Match() bool {
	return len(r.Diffs) == 0
}

// #endregion types

// #region replay

// Replay runs every case through a fully wired orchestrator backed by the
// fixture's catalog and scripted replies. Operates entirely in-memory.
func Replay(ctx context.Context, f *Fixture) ([]Result, error) {
	records, err := newMemoryCatalog(f.Diseases, f.Medicines)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(f.Cases))
	for _, c := range f.Cases {
		script := &scripted{c: c}
		orch := orchestrator.NewOrchestrator(
			script,
			retrieval.NewScorer(script, retrieval.DefaultConfig()),
			gate.NewGate(gate.DefaultConfig(), records, script),
			treatment.NewService(treatment.DefaultConfig(), script, records, script, script),
			nil,
		)

		rpt, err := orch.Analyze(ctx, orchestrator.Request{
			SymptomsText: c.Request.SymptomsText,
			LabReports:   c.Request.LabReports,
			PatientInfo:  c.Request.PatientInfo,
		})
		results = append(results, Result{
			Name:   c.Name,
			Report: rpt,
			Err:    err,
			Diffs:  compare(c.Expected, rpt, err),
		})
	}
	return results, nil
}

// #endregion replay

// #region compare

func compare(want FixtureExpected, got report.Report, err error) []string {
	var diffs []string
	if want.Error {
		if !errors.Is(err, orchestrator.ErrExtraction) {
			diffs = append(diffs, fmt.Sprintf("expected extraction error, got %v", err))
		}
		return diffs
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	if got.Diagnosis != want.Diagnosis {
		diffs = append(diffs, fmt.Sprintf("diagnosis=%q want %q", got.Diagnosis, want.Diagnosis))
	}
	if name := medicineName(got.Prescription); name != want.Prescription {
		diffs = append(diffs, fmt.Sprintf("prescription=%q want %q", name, want.Prescription))
	}
	if name := medicineName(got.AlternativePrescription); name != want.Alternative {
		diffs = append(diffs, fmt.Sprintf("alternative=%q want %q", name, want.Alternative))
	}
	if want.WarningContains == "" && got.ContraindicationWarning != "" {
		diffs = append(diffs, fmt.Sprintf("unexpected warning %q", got.ContraindicationWarning))
	}
	if want.WarningContains != "" && !strings.Contains(got.ContraindicationWarning, want.WarningContains) {
		diffs = append(diffs, fmt.Sprintf("warning=%q want it to contain %q", got.ContraindicationWarning, want.WarningContains))
	}
	if want.Tests != nil && !slices.Equal(got.FollowUpTestsRequired, want.Tests) {
		diffs = append(diffs, fmt.Sprintf("tests=%v want %v", got.FollowUpTestsRequired, want.Tests))
	}
	return diffs
}

func medicineName(p *report.Prescription) string {
	if p == nil {
		return ""
	}
	return p.MedicineName
}

// #endregion compare

// #region collaborators

// memoryCatalog serves parsed fixture records in place of the SQLite store.
type memoryCatalog struct {
	diseases  map[string]catalog.DiseaseRecord
	medicines map[string]catalog.MedicineRecord
}

func newMemoryCatalog(diseases, medicines []json.RawMessage) (*memoryCatalog, error) {
	m := &memoryCatalog{
		diseases:  make(map[string]catalog.DiseaseRecord, len(diseases)),
		medicines: make(map[string]catalog.MedicineRecord, len(medicines)),
	}
	for _, raw := range diseases {
		rec, err := catalog.ParseDisease(raw)
		if err != nil {
			return nil, err
		}
		m.diseases[rec.ID] = rec
	}
	for _, raw := range medicines {
		rec, err := catalog.ParseMedicine(raw)
		if err != nil {
			return nil, err
		}
		m.medicines[rec.ID] = rec
	}
	return m, nil
}

func (m *memoryCatalog) Disease(_ context.Context, id string) (catalog.DiseaseRecord, error) {
	rec, ok := m.diseases[id]
	if !ok {
		return catalog.DiseaseRecord{}, fmt.Errorf("disease %s: %w", id, catalog.ErrNotFound)
	}
	return rec, nil
}

func (m *memoryCatalog) Medicine(_ context.Context, id string) (catalog.MedicineRecord, error) {
	rec, ok := m.medicines[id]
	if !ok {
		return catalog.MedicineRecord{}, fmt.Errorf("medicine %s: %w", id, catalog.ErrNotFound)
	}
	return rec, nil
}

// scripted answers index and reasoning calls from one fixture case.
type scripted struct {
	c FixtureCase
}

func (s *scripted) ExtractProfile(_ context.Context, _ string, _ map[string]any) (codec.Profile, error) {
	if s.c.ExtractionError != "" {
		return codec.Profile{}, errors.New(s.c.ExtractionError)
	}
	return s.c.Profile, nil
}

func (s *scripted) SearchDiseases(_ context.Context, _ string, topK int) ([]codec.Hit, error) {
	if s.c.IndexError != "" {
		return nil, errors.New(s.c.IndexError)
	}
	if len(s.c.DiseaseHits) > topK {
		return s.c.DiseaseHits[:topK], nil
	}
	return s.c.DiseaseHits, nil
}

func (s *scripted) SearchMedicines(_ context.Context, diseaseID string, _ int) ([]codec.Hit, error) {
	return s.c.MedicineHits[diseaseID], nil
}

func (s *scripted) SelectTests(_ context.Context, _ []string, _ []codec.TestOption) ([]string, error) {
	if s.c.SelectedTests == nil {
		return nil, errors.New("no tests scripted")
	}
	return s.c.SelectedTests, nil
}

func (s *scripted) JudgeSafety(_ context.Context, _ codec.Profile, drug json.RawMessage, _ []string) (codec.Verdict, error) {
	rec, err := catalog.ParseMedicine(drug)
	if err != nil {
		return codec.Verdict{}, err
	}
	v, ok := s.c.Verdicts[rec.ID]
	if !ok {
		return codec.Verdict{}, fmt.Errorf("no verdict scripted for %s", rec.ID)
	}
	return v, nil
}

func (s *scripted) GeneratePlan(_ context.Context, _, _ json.RawMessage, _ map[string]any) (codec.Plan, error) {
	if s.c.PlanError != "" {
		return codec.Plan{}, errors.New(s.c.PlanError)
	}
	if s.c.Plan == nil {
		return codec.Plan{}, nil
	}
	return *s.c.Plan, nil
}

// #endregion collaborators
