package steps

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeStageDraftRepairsMalformedDraft(t *testing.T) {
	d := NormalizeStageDraft(StageDraft{
		Order:      2,
		AgeStart:   -5,
		AgeEnd:     -1,
		Label:      "",
		Confidence: 4.2,
		TurningPoints: []string{
			"", "met mentor", "  ", "first publication", "moved abroad",
			"founded lab", "award", "retired", "one too many",
		},
	})

	if d.AgeStart != 20 {
		t.Fatalf("expected index-derived age start 20, got %d", d.AgeStart)
	}
	if d.AgeEnd != 29 {
		t.Fatalf("expected age end 29, got %d", d.AgeEnd)
	}
	if d.Label != placeholderLabel {
		t.Fatalf("blank label not replaced: %q", d.Label)
	}
	if d.EraSummary != placeholderEraSummary {
		t.Fatalf("blank summary not replaced: %q", d.EraSummary)
	}
	if d.Confidence != 0.5 {
		t.Fatalf("out-of-range confidence not defaulted: %v", d.Confidence)
	}
	if len(d.TurningPoints) != maxTurningPoints {
		t.Fatalf("turning points not capped at %d: %v", maxTurningPoints, d.TurningPoints)
	}
	for _, tp := range d.TurningPoints {
		if strings.TrimSpace(tp) == "" {
			t.Fatalf("empty turning point survived: %v", d.TurningPoints)
		}
	}
	if d.Title != "[20-29] - Life Era" {
		t.Fatalf("canonical title not built: %q", d.Title)
	}
}

func TestNormalizeStageDraftIdempotent(t *testing.T) {
	once := NormalizeStageDraft(StageDraft{
		Order:            1,
		Label:            "Early Builder",
		AgeStart:         18,
		AgeEnd:           32,
		EraSummary:       "First major work.",
		WorldviewSummary: "Ambitious.",
		TurningPoints:    []string{"first job"},
		Confidence:       0.8,
	})
	twice := NormalizeStageDraft(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalization not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestFallbackStageLadderSpansAges(t *testing.T) {
	ladder := FallbackStageLadder()
	if len(ladder) != 3 {
		t.Fatalf("expected 3 fallback stages, got %d", len(ladder))
	}
	labels := []string{"Formative Years", "Early Builder", "Institutional Influence"}
	for i, d := range ladder {
		if d.Label != labels[i] {
			t.Fatalf("stage %d label = %q, want %q", i, d.Label, labels[i])
		}
		if d.Order != i {
			t.Fatalf("stage %d order = %d", i, d.Order)
		}
	}
	if ladder[0].AgeStart != 0 {
		t.Fatalf("ladder must start at age 0, got %d", ladder[0].AgeStart)
	}
	if ladder[2].AgeEnd < 45 {
		t.Fatalf("ladder must reach age 45, got %d", ladder[2].AgeEnd)
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i].AgeStart != ladder[i-1].AgeEnd+1 {
			t.Fatalf("ladder ages not contiguous at %d", i)
		}
	}
}
