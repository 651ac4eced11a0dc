package ingest

import (
	"strings"
	"testing"
)

func TestPhasesFromFullLadder(t *testing.T) {
	got := PhasesFrom("")
	want := []string{"discover", "extract", "stage", "embed", "publish"}
	if len(got) != len(want) {
		t.Fatalf("expected %d phases, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phase %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestPhasesFromResume(t *testing.T) {
	got := PhasesFrom("stage")
	if strings.Join(got, ",") != "stage,embed,publish" {
		t.Fatalf("unexpected resume ladder: %v", got)
	}
	if only := PhasesFrom("publish"); len(only) != 1 || only[0] != "publish" {
		t.Fatalf("resume at final phase should run exactly that phase, got %v", only)
	}
}

func TestPhasesFromUnknown(t *testing.T) {
	if got := PhasesFrom("nonsense"); got != nil {
		t.Fatalf("unknown phase should yield nil, got %v", got)
	}
}
