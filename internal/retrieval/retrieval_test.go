package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/codec"
)

// #region mock
type mockIndex struct {
	hits []codec.Hit
	err  error

	calls     int
	lastQuery string
	lastTopK  int
}

func (m *mockIndex) SearchDiseases(_ context.Context, queryText string, topK int) ([]codec.Hit, error) {
	m.calls++
	m.lastQuery = queryText
	m.lastTopK = topK
	return m.hits, m.err
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// #endregion mock

// #region score-tests
func TestScore_EmptySymptomsSkipsIndex(t *testing.T) {
	idx := &mockIndex{}
	s := NewScorer(idx, DefaultConfig())

	got, err := s.Score(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", got)
	}
	if idx.calls != 0 {
		t.Fatalf("expected no index call, got %d", idx.calls)
	}
}

func TestScore_BuildsQueryInOrder(t *testing.T) {
	idx := &mockIndex{}
	s := NewScorer(idx, DefaultConfig())

	s.Score(context.Background(), []string{"fever", "cough"})

	if idx.lastQuery != "Patient symptoms: fever, cough" {
		t.Errorf("unexpected query %q", idx.lastQuery)
	}
	if idx.lastTopK != 5 {
		t.Errorf("expected top 5, got %d", idx.lastTopK)
	}
	if idx.calls != 1 {
		t.Errorf("expected a single index call, got %d", idx.calls)
	}
}

func TestScore_MultiFragmentCorroboration(t *testing.T) {
	idx := &mockIndex{hits: []codec.Hit{
		{ID: "D1_symptom_0", OwnerID: "D1", Distance: 0.1},
		{ID: "D2_symptom_0", OwnerID: "D2", Distance: 0.7},
		{ID: "D1_symptom_1", OwnerID: "D1", Distance: 0.1},
	}}
	s := NewScorer(idx, DefaultConfig())

	got, err := s.Score(context.Background(), []string{"fever", "cough"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].DiseaseID != "D1" || !near(got[0].Score, 1.8) || got[0].Hits != 2 {
		t.Errorf("expected D1 at 1.8 from 2 hits, got %+v", got[0])
	}
	if got[1].DiseaseID != "D2" || !near(got[1].Score, 0.3) {
		t.Errorf("expected D2 at 0.3, got %+v", got[1])
	}
}

func TestScore_IndexFailureIsDistinct(t *testing.T) {
	idx := &mockIndex{err: errors.New("connection refused")}
	s := NewScorer(idx, DefaultConfig())

	got, err := s.Score(context.Background(), []string{"fever"})
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", got)
	}
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestNewScorer_DefaultsTopK(t *testing.T) {
	idx := &mockIndex{}
	s := NewScorer(idx, Config{QueryPrefix: "q: "})

	s.Score(context.Background(), []string{"rash"})
	if idx.lastTopK != 5 {
		t.Errorf("expected default top 5, got %d", idx.lastTopK)
	}
	if idx.lastQuery != "q: rash" {
		t.Errorf("unexpected query %q", idx.lastQuery)
	}
}

// #endregion score-tests

// #region aggregate-tests
func TestAggregate_TiesKeepHitOrder(t *testing.T) {
	got := Aggregate([]codec.Hit{
		{OwnerID: "B", Distance: 0.5},
		{OwnerID: "A", Distance: 0.5},
		{OwnerID: "C", Distance: 0.2},
	})
	want := []string{"C", "B", "A"}
	for i, id := range want {
		if got[i].DiseaseID != id {
			t.Fatalf("position %d: expected %s, got %s (%+v)", i, id, got[i].DiseaseID, got)
		}
	}
}

func TestAggregate_SkipsOwnerless(t *testing.T) {
	got := Aggregate([]codec.Hit{{OwnerID: "", Distance: 0}, {OwnerID: "X", Distance: 0.4}})
	if len(got) != 1 || got[0].DiseaseID != "X" {
		t.Fatalf("unexpected candidates %+v", got)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	hits := []codec.Hit{
		{OwnerID: "D3", Distance: 0.3},
		{OwnerID: "D1", Distance: 0.4},
		{OwnerID: "D3", Distance: 0.9},
		{OwnerID: "D2", Distance: 0.2},
	}
	first := Aggregate(hits)
	for i := 0; i < 20; i++ {
		again := Aggregate(hits)
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

// #endregion aggregate-tests
