package steps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
	"github.com/yungbote/lifeline-backend/internal/platform/websearch"
)

type DiscoverSourcesDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	LLM     openai.Client
	Search  websearch.Client
	Sources repos.SourceRepo
}

type DiscoverSourcesInput struct {
	PersonID   uuid.UUID
	PersonName string
	SeedURLs   []string
}

type DiscoverSourcesOptions struct {
	Report func(phase string, pct int, message string)
}

type DiscoverSourcesOutput struct {
	SourcesCreated int  `json:"sources_created"`
	UsedFallback   bool `json:"used_fallback"`
	Vetted         bool `json:"vetted"`
}

// DiscoverSources plans queries, sweeps the search provider, vets the results
// against the person's identity, and replaces the person's entire source set
// with the outcome. With no search capability it still produces the
// deterministic fallback set, so discovery never yields zero sources.
func DiscoverSources(ctx context.Context, deps DiscoverSourcesDeps, in DiscoverSourcesInput, opts ...DiscoverSourcesOptions) (DiscoverSourcesOutput, error) {
	out := DiscoverSourcesOutput{}
	if deps.DB == nil || deps.Log == nil || deps.LLM == nil || deps.Search == nil || deps.Sources == nil {
		return out, fmt.Errorf("discover_sources: missing deps")
	}
	if in.PersonID == uuid.Nil {
		return out, fmt.Errorf("discover_sources: missing person_id")
	}
	if in.PersonName == "" {
		return out, fmt.Errorf("discover_sources: missing person name")
	}

	var opt DiscoverSourcesOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	progress := newProgressReporter(types.PhaseDiscover, opt.Report, 0, 0)
	progress.Update(5, "planning search queries")

	plan, err := PlanDiscoveryQueries(ctx, PlanQueriesDeps{Log: deps.Log, LLM: deps.LLM}, PlanQueriesInput{PersonName: in.PersonName})
	if err != nil {
		return out, err
	}

	progress.Update(20, "searching the web")
	candidates, err := ExecuteSearchPlan(ctx, ExecuteSearchPlanDeps{Log: deps.Log, Search: deps.Search}, plan)
	if err != nil {
		return out, err
	}
	candidates = appendSeedCandidates(candidates, in.SeedURLs)

	if len(candidates) == 0 {
		deps.Log.Warn("Search produced no candidates; using deterministic fallback set", "person", in.PersonName)
		candidates = FallbackCandidates(in.PersonName)
		out.UsedFallback = true
	} else {
		progress.Update(55, "vetting sources")
		vetted, err := VetCandidates(ctx, VetCandidatesDeps{Log: deps.Log, LLM: deps.LLM}, in.PersonName, candidates)
		if err != nil {
			return out, err
		}
		out.Vetted = len(vetted) < len(candidates)
		candidates = vetted
	}

	progress.Update(85, "saving sources")
	rows := make([]*types.Source, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, candidateToSource(in.PersonID, c))
	}
	if _, err := deps.Sources.ReplaceAllForPerson(dbctx.Context{Ctx: ctx}, in.PersonID, rows); err != nil {
		return out, err
	}
	out.SourcesCreated = len(rows)

	deps.Log.Info("Discovery complete",
		"person", in.PersonName,
		"sources", out.SourcesCreated,
		"used_fallback", out.UsedFallback,
	)
	return out, nil
}

func appendSeedCandidates(candidates []SourceCandidate, seedURLs []string) []SourceCandidate {
	seen := map[string]bool{}
	for _, c := range candidates {
		seen[c.URL] = true
	}
	for _, u := range seedURLs {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		candidates = append(candidates, SourceCandidate{
			URL:    u,
			Title:  u,
			Type:   ClassifySourceType(u, ""),
			Vetted: true,
			VetReason: "caller-provided seed",
		})
	}
	return candidates
}

func candidateToSource(personID uuid.UUID, c SourceCandidate) *types.Source {
	meta := types.SourceMetadata{
		Snippet:   c.Snippet,
		Vetted:    c.Vetted,
		VetReason: c.VetReason,
	}
	return &types.Source{
		PersonID:    personID,
		URL:         c.URL,
		Type:        c.Type,
		Title:       c.Title,
		PublishedAt: c.PublishedAt,
		Metadata:    mustMetadataJSON(meta),
	}
}

func mustMetadataJSON(meta types.SourceMetadata) datatypes.JSON {
	raw, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(raw)
}

func parseSourceMetadata(raw datatypes.JSON) types.SourceMetadata {
	var meta types.SourceMetadata
	if len(raw) == 0 {
		return meta
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return types.SourceMetadata{}
	}
	return meta
}
