package steps

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/websearch"
)

type fakeSearch struct {
	results map[string][]websearch.Result
}

func (f *fakeSearch) Search(_ context.Context, q websearch.Query) ([]websearch.Result, error) {
	key := q.Query
	if q.SiteFilter != "" {
		key = q.Query + " site:" + q.SiteFilter
	}
	if rs, ok := f.results[key]; ok {
		return rs, nil
	}
	return f.results[q.Query], nil
}

func (f *fakeSearch) Enabled() bool { return true }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestExecuteSearchPlanDedupesFirstWins(t *testing.T) {
	search := &fakeSearch{results: map[string][]websearch.Result{
		"q1": {
			{URL: "https://example.com/shared", Title: "Profile interview", Kind: websearch.KindWeb},
			{URL: "https://example.com/only-q1", Title: "Bio", Kind: websearch.KindWeb},
		},
		"q2": {
			{URL: "https://example.com/shared", Title: "Different title", Kind: websearch.KindWeb},
			{URL: "https://youtube.com/watch?v=abc123def", Title: "Talk", Kind: websearch.KindVideo},
		},
	}}

	got, err := ExecuteSearchPlan(context.Background(), ExecuteSearchPlanDeps{Log: testLogger(t), Search: search}, []PlannedQuery{
		{Query: "q1", Kind: websearch.KindWeb},
		{Query: "q2", Kind: websearch.KindWeb},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 deduplicated candidates, got %d", len(got))
	}

	byURL := map[string]SourceCandidate{}
	for _, c := range got {
		if _, dup := byURL[c.URL]; dup {
			t.Fatalf("duplicate URL in results: %s", c.URL)
		}
		byURL[c.URL] = c
	}
	shared := byURL["https://example.com/shared"]
	if shared.Title != "Profile interview" {
		t.Fatalf("first-seen candidate not kept: %+v", shared)
	}
	if shared.Type != "interview" {
		t.Fatalf("first-seen type classification not kept: %s", shared.Type)
	}
}

func TestClassifySourceType(t *testing.T) {
	cases := []struct {
		url, title, want string
	}{
		{"https://www.youtube.com/watch?v=x1y2z3abc", "Talk", "video"},
		{"https://youtu.be/x1y2z3abc", "", "video"},
		{"https://twitter.com/someone/status/1", "", "post"},
		{"https://www.linkedin.com/in/someone", "", "post"},
		{"https://example.com/the-big-interview", "", "interview"},
		{"https://example.com/story", "An interview with X", "interview"},
		{"https://example.com/biography", "Life of X", "article"},
	}
	for _, c := range cases {
		if got := ClassifySourceType(c.url, c.title); got != c.want {
			t.Fatalf("ClassifySourceType(%q, %q) = %q, want %q", c.url, c.title, got, c.want)
		}
	}
}

func TestFallbackCandidatesDeterministicSet(t *testing.T) {
	got := FallbackCandidates("Ada Lovelace")
	if len(got) != 6 {
		t.Fatalf("expected 6 fallback candidates, got %d", len(got))
	}
	if got[0].URL != "https://en.wikipedia.org/wiki/Ada-Lovelace" {
		t.Fatalf("wikipedia slug wrong: %s", got[0].URL)
	}
	if !strings.Contains(got[1].URL, "youtube.com/results") {
		t.Fatalf("second candidate should be a YouTube search URL: %s", got[1].URL)
	}
	if got[1].Type != "video" {
		t.Fatalf("youtube candidate should be video-typed: %s", got[1].Type)
	}
	for _, c := range got {
		if c.URL == "" || c.Title == "" || c.Type == "" {
			t.Fatalf("fallback candidate missing fields: %+v", c)
		}
	}

	again := FallbackCandidates("Ada Lovelace")
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("fallback set not deterministic at %d", i)
		}
	}
}
