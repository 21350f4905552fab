package treatment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/catalog"
	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #region mocks
type fakeIndex struct {
	hits []codec.Hit
	err  error
}

func (f *fakeIndex) SearchMedicines(_ context.Context, _ string, _ int) ([]codec.Hit, error) {
	return f.hits, f.err
}

type fakeRecords map[string]catalog.MedicineRecord

func (f fakeRecords) Medicine(_ context.Context, id string) (catalog.MedicineRecord, error) {
	rec, ok := f[id]
	if !ok {
		return catalog.MedicineRecord{}, fmt.Errorf("medicine %s: %w", id, catalog.ErrNotFound)
	}
	return rec, nil
}

// fakeJudge answers by drug_id found in the raw record.
type fakeJudge struct {
	verdicts map[string]codec.Verdict
	errs     map[string]error
	judged   []string
}

func (f *fakeJudge) JudgeSafety(_ context.Context, _ codec.Profile, drug json.RawMessage, _ []string) (codec.Verdict, error) {
	var rec struct {
		ID string `json:"drug_id"`
	}
	json.Unmarshal(drug, &rec)
	f.judged = append(f.judged, rec.ID)
	if err := f.errs[rec.ID]; err != nil {
		return codec.Verdict{}, err
	}
	return f.verdicts[rec.ID], nil
}

type fakePlanner struct {
	plan  codec.Plan
	err   error
	calls int
}

func (f *fakePlanner) GeneratePlan(_ context.Context, _, _ json.RawMessage, _ map[string]any) (codec.Plan, error) {
	f.calls++
	return f.plan, f.err
}

func medicine(id, name string) catalog.MedicineRecord {
	rec, _ := catalog.ParseMedicine([]byte(fmt.Sprintf(`{"drug_id":%q,"generic_name":%q}`, id, name)))
	return rec
}

// hitsInOrder produces hits whose scores strictly decrease in argument order.
func hitsInOrder(ids ...string) []codec.Hit {
	hits := make([]codec.Hit, len(ids))
	for i, id := range ids {
		hits[i] = codec.Hit{OwnerID: id, Distance: 0.1 * float64(i)}
	}
	return hits
}

func unsafe(reason string) codec.Verdict { return codec.Verdict{IsSafe: false, ConflictReason: reason} }

var safe = codec.Verdict{IsSafe: true}

func newService(idx *fakeIndex, recs fakeRecords, judge *fakeJudge, planner *fakePlanner) *Service {
	if planner == nil {
		planner = &fakePlanner{}
	}
	return NewService(DefaultConfig(), idx, recs, judge, planner)
}

// #endregion mocks

// #region order-tests
func TestOrderCandidates(t *testing.T) {
	got := OrderCandidates([]codec.Hit{
		{OwnerID: "M3", Distance: 0.4},
		{OwnerID: "M1", Distance: 0.2},
		{OwnerID: "M2", Distance: 0.4},
		{OwnerID: "M3", Distance: 0.1},
		{OwnerID: "", Distance: 0},
	})
	want := []string{"M3", "M1", "M2"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestOrderCandidates_TieBreaksByID(t *testing.T) {
	got := OrderCandidates([]codec.Hit{
		{OwnerID: "M9", Distance: 0.3},
		{OwnerID: "M2", Distance: 0.3},
		{OwnerID: "M5", Distance: 0.3},
	})
	if strings.Join(got, ",") != "M2,M5,M9" {
		t.Fatalf("expected id order on ties, got %v", got)
	}
}

// #endregion order-tests

// #region find-safe-tests
func TestFindSafe_NoCandidates(t *testing.T) {
	s := newService(&fakeIndex{}, fakeRecords{}, &fakeJudge{}, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.Status != StatusNoCandidates {
		t.Fatalf("expected NO_CANDIDATES, got %s", out.Status)
	}
}

func TestFindSafe_SearchFailure(t *testing.T) {
	s := newService(&fakeIndex{err: errors.New("down")}, fakeRecords{}, &fakeJudge{}, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.Status != StatusNoCandidates {
		t.Fatalf("expected NO_CANDIDATES, got %s", out.Status)
	}
}

func TestFindSafe_FirstSafeStopsSearch(t *testing.T) {
	judge := &fakeJudge{verdicts: map[string]codec.Verdict{"A": safe, "B": safe, "C": safe}}
	recs := fakeRecords{"A": medicine("A", "a"), "B": medicine("B", "b"), "C": medicine("C", "c")}
	s := newService(&fakeIndex{hits: hitsInOrder("A", "B", "C")}, recs, judge, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.Status != StatusSelected || out.Drug.ID != "A" {
		t.Fatalf("expected A selected, got %+v", out)
	}
	if len(judge.judged) != 1 {
		t.Fatalf("expected exactly one safety call, got %v", judge.judged)
	}
	if out.Alternative() {
		t.Error("first candidate accepted should not be an alternative")
	}
}

func TestFindSafe_FirstRejectionIsSticky(t *testing.T) {
	judge := &fakeJudge{verdicts: map[string]codec.Verdict{
		"A": unsafe("reason1"),
		"B": unsafe("reason2"),
		"C": safe,
		"D": safe,
	}}
	recs := fakeRecords{"A": medicine("A", "a"), "B": medicine("B", "b"), "C": medicine("C", "c"), "D": medicine("D", "d")}
	s := newService(&fakeIndex{hits: hitsInOrder("A", "B", "C", "D")}, recs, judge, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.Status != StatusSelected || out.Drug.ID != "C" {
		t.Fatalf("expected C selected, got %+v", out)
	}
	if out.FirstRejection != "reason1" {
		t.Fatalf("expected reason1, got %q", out.FirstRejection)
	}
	if !out.Alternative() {
		t.Error("expected alternative after rejections")
	}
	if strings.Join(judge.judged, ",") != "A,B,C" {
		t.Fatalf("expected A,B,C judged, got %v", judge.judged)
	}
}

func TestFindSafe_Idempotent(t *testing.T) {
	verdicts := map[string]codec.Verdict{"A": unsafe("allergy"), "B": safe}
	recs := fakeRecords{"A": medicine("A", "a"), "B": medicine("B", "b")}
	idx := &fakeIndex{hits: hitsInOrder("A", "B")}

	first := newService(idx, recs, &fakeJudge{verdicts: verdicts}, nil).FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	second := newService(idx, recs, &fakeJudge{verdicts: verdicts}, nil).FindSafe(context.Background(), "D1", codec.Profile{}, nil)

	if first.Drug.ID != second.Drug.ID || first.FirstRejection != second.FirstRejection {
		t.Fatalf("expected identical outcomes, got %+v and %+v", first, second)
	}
}

func TestFindSafe_SkipsMissingRecordsAndJudgeErrors(t *testing.T) {
	judge := &fakeJudge{
		verdicts: map[string]codec.Verdict{"C": safe},
		errs:     map[string]error{"B": errors.New("malformed")},
	}
	recs := fakeRecords{"B": medicine("B", "b"), "C": medicine("C", "c")}
	s := newService(&fakeIndex{hits: hitsInOrder("A", "B", "C")}, recs, judge, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.Status != StatusSelected || out.Drug.ID != "C" {
		t.Fatalf("expected C selected, got %+v", out)
	}
	if out.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", out.Skipped)
	}
	if out.Alternative() {
		t.Error("skips are not rejections; expected primary")
	}
}

func TestFindSafe_AllContraindicated(t *testing.T) {
	judge := &fakeJudge{verdicts: map[string]codec.Verdict{"A": unsafe("pregnancy"), "B": unsafe("renal")}}
	recs := fakeRecords{"A": medicine("A", "a"), "B": medicine("B", "b")}
	s := newService(&fakeIndex{hits: hitsInOrder("A", "B")}, recs, judge, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.Status != StatusAllContraindicated {
		t.Fatalf("expected ALL_CONTRAINDICATED, got %s", out.Status)
	}
	if out.FirstRejection != "pregnancy" {
		t.Fatalf("expected first reason, got %q", out.FirstRejection)
	}
}

func TestFindSafe_ExhaustedWithoutVerdicts(t *testing.T) {
	judge := &fakeJudge{errs: map[string]error{"A": errors.New("x")}}
	s := newService(&fakeIndex{hits: hitsInOrder("A", "Z")}, fakeRecords{"A": medicine("A", "a")}, judge, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.Status != StatusAllContraindicated || out.FirstRejection != UnknownConflict {
		t.Fatalf("expected unknown conflict placeholder, got %+v", out)
	}
}

func TestFindSafe_EmptyReasonUsesPlaceholder(t *testing.T) {
	judge := &fakeJudge{verdicts: map[string]codec.Verdict{"A": unsafe(""), "B": safe}}
	recs := fakeRecords{"A": medicine("A", "a"), "B": medicine("B", "b")}
	s := newService(&fakeIndex{hits: hitsInOrder("A", "B")}, recs, judge, nil)

	out := s.FindSafe(context.Background(), "D1", codec.Profile{}, nil)
	if out.FirstRejection != UnknownConflict {
		t.Fatalf("expected placeholder, got %q", out.FirstRejection)
	}
}

// #endregion find-safe-tests

// #region report-tests
func TestReport_NoCandidates(t *testing.T) {
	s := newService(&fakeIndex{}, fakeRecords{}, &fakeJudge{}, nil)

	r := s.Report(context.Background(), catalog.DiseaseRecord{}, "Flu", 0.9, Outcome{Status: StatusNoCandidates}, nil)
	if !strings.HasPrefix(r.ContraindicationWarning, "No suitable medicine found") {
		t.Fatalf("unexpected warning %q", r.ContraindicationWarning)
	}
	if r.Prescription != nil || r.AlternativePrescription != nil {
		t.Fatal("expected no prescription")
	}
}

func TestReport_AlternativeCitesFirstRejection(t *testing.T) {
	planner := &fakePlanner{plan: codec.Plan{Prescription: &codec.Prescription{
		MedicineName: "c", Dosage: "1", Frequency: "2", Duration: "3",
	}}}
	s := newService(&fakeIndex{}, fakeRecords{}, &fakeJudge{}, planner)
	out := Outcome{Status: StatusSelected, Drug: medicine("C", "c"), FirstRejection: "reason1", Rejected: 2}

	r := s.Report(context.Background(), catalog.DiseaseRecord{}, "Flu", 0.9, out, nil)
	if r.Prescription != nil {
		t.Fatalf("expected no primary prescription, got %+v", r.Prescription)
	}
	if r.AlternativePrescription == nil || !strings.Contains(r.ContraindicationWarning, "reason1") {
		t.Fatalf("expected alternative citing reason1, got %+v", r)
	}
}

func TestReport_PlanFailureFallsBack(t *testing.T) {
	planner := &fakePlanner{err: errors.New("timeout")}
	s := newService(&fakeIndex{}, fakeRecords{}, &fakeJudge{}, planner)
	out := Outcome{Status: StatusSelected, Drug: medicine("A", "paracetamol")}

	r := s.Report(context.Background(), catalog.DiseaseRecord{}, "Flu", 0.9, out, nil)
	if r.Prescription == nil || r.Prescription.MedicineName != "paracetamol" {
		t.Fatalf("expected bare generic prescription, got %+v", r.Prescription)
	}
	if r.ContraindicationWarning == "" {
		t.Error("expected plan failure warning")
	}
	if planner.calls != 1 {
		t.Errorf("expected one plan call, got %d", planner.calls)
	}
}

func TestReport_AllContraindicatedSkipsPlanner(t *testing.T) {
	planner := &fakePlanner{}
	s := newService(&fakeIndex{}, fakeRecords{}, &fakeJudge{}, planner)

	r := s.Report(context.Background(), catalog.DiseaseRecord{}, "Flu", 0.9,
		Outcome{Status: StatusAllContraindicated, FirstRejection: "pregnancy"}, nil)
	if !strings.Contains(r.ContraindicationWarning, "pregnancy") {
		t.Fatalf("unexpected warning %q", r.ContraindicationWarning)
	}
	if planner.calls != 0 {
		t.Fatalf("planner should not run, got %d calls", planner.calls)
	}
}

// #endregion report-tests
