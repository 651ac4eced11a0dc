package steps

import (
	"context"
	"fmt"
	"testing"
)

type fakeLLM struct {
	jsonFn  func(schemaName string, user string) (map[string]any, error)
	embedFn func(inputs []string) ([][]float32, error)
}

func (f *fakeLLM) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _ string, user string, schemaName string, _ map[string]any) (map[string]any, error) {
	if f.jsonFn != nil {
		return f.jsonFn(schemaName, user)
	}
	return nil, fmt.Errorf("no handler")
}

func (f *fakeLLM) GenerateText(_ context.Context, _ string, _ string) (string, error) {
	return "", fmt.Errorf("no handler")
}

func makeCandidates(n int) []SourceCandidate {
	out := make([]SourceCandidate, n)
	for i := range out {
		out[i] = SourceCandidate{
			URL:   fmt.Sprintf("https://example.com/%d", i),
			Title: fmt.Sprintf("candidate %d", i),
			Type:  "article",
		}
	}
	return out
}

func TestVetCandidatesKeepsOnlyValidIndices(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(schemaName, _ string) (map[string]any, error) {
		return map[string]any{"valid_indices": []any{float64(0), float64(2), float64(4)}}, nil
	}}

	got, err := VetCandidates(context.Background(), VetCandidatesDeps{Log: testLogger(t), LLM: llm}, "Ada Lovelace", makeCandidates(5))
	if err != nil {
		t.Fatalf("vet: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(got))
	}
	for _, c := range got {
		if !c.Vetted {
			t.Fatalf("survivor not marked vetted: %+v", c)
		}
	}
}

func TestVetCandidatesBatchesOfFifteen(t *testing.T) {
	var calls int
	llm := &fakeLLM{jsonFn: func(schemaName, _ string) (map[string]any, error) {
		calls++
		return map[string]any{"valid_indices": []any{float64(0), float64(1), float64(2), float64(3)}}, nil
	}}

	if _, err := VetCandidates(context.Background(), VetCandidatesDeps{Log: testLogger(t), LLM: llm}, "Ada Lovelace", makeCandidates(31)); err != nil {
		t.Fatalf("vet: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 batches for 31 candidates, got %d calls", calls)
	}
}

func TestVetCandidatesTooFewSurvivorsKeepsAll(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(schemaName, _ string) (map[string]any, error) {
		return map[string]any{"valid_indices": []any{float64(1)}}, nil
	}}

	candidates := makeCandidates(10)
	got, err := VetCandidates(context.Background(), VetCandidatesDeps{Log: testLogger(t), LLM: llm}, "Ada Lovelace", candidates)
	if err != nil {
		t.Fatalf("vet: %v", err)
	}
	if len(got) != len(candidates) {
		t.Fatalf("over-aggressive vetting should keep full set; got %d of %d", len(got), len(candidates))
	}
}

func TestQualityScoreHeuristic(t *testing.T) {
	if s := QualityScore(5000, true, true); s < 0.9 || s > 1 {
		t.Fatalf("long text should score 0.9+, got %v", s)
	}
	if s := QualityScore(300, true, true); s != 0.55 {
		t.Fatalf("short text should score 0.55, got %v", s)
	}
	if s := QualityScore(0, false, false); s != 0.45 {
		t.Fatalf("unvetted no-snippet empty source should score 0.45, got %v", s)
	}
	if s := QualityScore(0, true, true); s != 0.5 {
		t.Fatalf("vetted empty source should score 0.5, got %v", s)
	}
}

func TestAsymptoticProgress(t *testing.T) {
	if got := asymptoticPct(0); got != 0 {
		t.Fatalf("asymptoticPct(0) = %d", got)
	}
	if got := asymptoticPct(5); got != 50 {
		t.Fatalf("asymptoticPct(5) = %d, want 50", got)
	}
	prev := 0
	for i := 1; i < 500; i++ {
		pct := asymptoticPct(i)
		if pct < prev {
			t.Fatalf("progress decreased at %d: %d < %d", i, pct, prev)
		}
		if pct > 99 {
			t.Fatalf("progress exceeded cap at %d: %d", i, pct)
		}
		prev = pct
	}
}
