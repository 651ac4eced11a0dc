package steps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
)

func TestClampRelevance(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-2, 0.1},
		{0, 0.1},
		{0.05, 0.1},
		{0.1, 0.1},
		{0.73, 0.73},
		{1, 1},
		{9.9, 1},
	}
	for _, c := range cases {
		if got := clampRelevance(c.in); got != c.want {
			t.Fatalf("clampRelevance(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFallbackLinkDeterministicByCreationTime(t *testing.T) {
	stages := []*types.Stage{
		{ID: uuid.New(), Order: 0},
		{ID: uuid.New(), Order: 1},
		{ID: uuid.New(), Order: 2},
	}
	src := &types.Source{
		ID:        uuid.New(),
		CreatedAt: time.Unix(1_700_000_005, 0),
	}

	link := fallbackLink(src, stages)
	wantIdx := int(src.CreatedAt.Unix()) % len(stages)
	if link.StageID != stages[wantIdx].ID {
		t.Fatalf("fallback picked stage %s, want index %d", link.StageID, wantIdx)
	}
	if link.Relevance != 0.1 {
		t.Fatalf("fallback relevance = %v, want 0.1", link.Relevance)
	}

	again := fallbackLink(src, stages)
	if again.StageID != link.StageID {
		t.Fatalf("fallback assignment not deterministic")
	}
}

func TestProgressReporterMonotonicAndClamped(t *testing.T) {
	var got []int
	p := newProgressReporter(types.PhaseEmbed, func(_ string, pct int, _ string) {
		got = append(got, pct)
	}, 0, time.Nanosecond)

	p.Update(10, "a")
	p.Update(5, "b")   // would regress; must hold at 10
	p.Update(150, "c") // clamped to 99
	p.Update(99, "d")

	if len(got) == 0 {
		t.Fatalf("no progress reported")
	}
	prev := -1
	for _, pct := range got {
		if pct < prev {
			t.Fatalf("progress regressed: %v", got)
		}
		if pct > 99 {
			t.Fatalf("progress exceeded 99: %v", got)
		}
		prev = pct
	}
	if got[len(got)-1] != 99 {
		t.Fatalf("expected final progress 99, got %d", got[len(got)-1])
	}
}

type fakeLinkSourceRepo struct {
	sources []*types.Source
}

func (f *fakeLinkSourceRepo) Create(_ dbctx.Context, rows []*types.Source) ([]*types.Source, error) {
	return rows, nil
}

func (f *fakeLinkSourceRepo) ReplaceAllForPerson(_ dbctx.Context, _ uuid.UUID, rows []*types.Source) ([]*types.Source, error) {
	return rows, nil
}

func (f *fakeLinkSourceRepo) GetByID(_ dbctx.Context, _ uuid.UUID) (*types.Source, error) {
	return nil, nil
}

func (f *fakeLinkSourceRepo) GetByIDs(_ dbctx.Context, _ []uuid.UUID) ([]*types.Source, error) {
	return nil, nil
}

func (f *fakeLinkSourceRepo) ListByPerson(_ dbctx.Context, _ uuid.UUID) ([]*types.Source, error) {
	return f.sources, nil
}

func (f *fakeLinkSourceRepo) ListPage(_ dbctx.Context, _ uuid.UUID, offset, limit int) ([]*types.Source, error) {
	if offset >= len(f.sources) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.sources) {
		end = len(f.sources)
	}
	return f.sources[offset:end], nil
}

func (f *fakeLinkSourceRepo) ExistingURLs(_ dbctx.Context, _ uuid.UUID, _ []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (f *fakeLinkSourceRepo) UpdateFields(_ dbctx.Context, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (f *fakeLinkSourceRepo) DeleteByPerson(_ dbctx.Context, _ uuid.UUID, _ int) error { return nil }

type fakeLinkStageRepo struct {
	stages []*types.Stage
}

func (f *fakeLinkStageRepo) ReplaceAllForPerson(_ dbctx.Context, _ uuid.UUID, rows []*types.Stage) ([]*types.Stage, error) {
	return rows, nil
}

func (f *fakeLinkStageRepo) GetByID(_ dbctx.Context, _ uuid.UUID) (*types.Stage, error) {
	return nil, nil
}

func (f *fakeLinkStageRepo) ListByPerson(_ dbctx.Context, _ uuid.UUID) ([]*types.Stage, error) {
	return f.stages, nil
}

func (f *fakeLinkStageRepo) DeleteByPerson(_ dbctx.Context, _ uuid.UUID, _ int) error { return nil }

type fakeRelinkRepo struct {
	linked int
}

func (f *fakeRelinkRepo) Relink(_ dbctx.Context, rows []*types.StageSourceLink) ([]*types.StageSourceLink, error) {
	f.linked += len(rows)
	return rows, nil
}

func (f *fakeRelinkRepo) ListByStage(_ dbctx.Context, _ uuid.UUID) ([]*types.StageSourceLink, error) {
	return nil, nil
}

func (f *fakeRelinkRepo) ListByStageIDs(_ dbctx.Context, _ []uuid.UUID) ([]*types.StageSourceLink, error) {
	return nil, nil
}

func (f *fakeRelinkRepo) DeleteByStageIDs(_ dbctx.Context, _ []uuid.UUID, _ int) error { return nil }

func TestLinkSourcesProgressSaturatesWithinStageRange(t *testing.T) {
	stage := &types.Stage{ID: uuid.New(), Order: 0, Title: "[0-19] - Formative Years", EraSummary: "Early life."}
	var sources []*types.Source
	for i := 0; i < 60; i++ {
		sources = append(sources, &types.Source{
			ID:      uuid.New(),
			URL:     fmt.Sprintf("https://example.com/%d", i),
			Title:   fmt.Sprintf("source %d", i),
			Type:    types.SourceTypeArticle,
			RawText: "evidence text",
		})
	}
	links := &fakeRelinkRepo{}
	llm := &fakeLLM{jsonFn: func(schemaName, _ string) (map[string]any, error) {
		return map[string]any{"stage_order": float64(0), "relevance": 0.8, "rationale": "fits"}, nil
	}}

	var pcts []int
	out, err := LinkSources(context.Background(), LinkSourcesDeps{
		DB:      &gorm.DB{},
		Log:     testLogger(t),
		LLM:     llm,
		Sources: &fakeLinkSourceRepo{sources: sources},
		Stages:  &fakeLinkStageRepo{stages: []*types.Stage{stage}},
		Links:   links,
	}, LinkSourcesInput{PersonID: uuid.New(), PersonName: "Ada Lovelace"}, LinkSourcesOptions{
		Report: func(_ string, pct int, _ string) { pcts = append(pcts, pct) },
	})
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if out.SourcesLinked != 60 || links.linked != 60 {
		t.Fatalf("expected 60 links, got %d (repo saw %d)", out.SourcesLinked, links.linked)
	}
	if out.FallbackAssigned != 0 {
		t.Fatalf("unexpected fallback assignments: %d", out.FallbackAssigned)
	}
	if len(pcts) == 0 {
		t.Fatalf("no progress reported")
	}
	prev := -1
	for _, pct := range pcts {
		if pct < 60 || pct > 70 {
			t.Fatalf("progress %d outside the 60-70 linking range", pct)
		}
		if pct < prev {
			t.Fatalf("progress regressed: %v", pcts)
		}
		prev = pct
	}
	if pcts[len(pcts)-1] != 70 {
		t.Fatalf("expected linking to finish at 70, got %d", pcts[len(pcts)-1])
	}
}
