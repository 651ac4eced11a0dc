package steps

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
	"github.com/yungbote/lifeline-backend/internal/platform/scrape"
	"github.com/yungbote/lifeline-backend/internal/platform/websearch"
)

const deepResearchRelevance = 0.85

type DeepResearchDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	LLM         openai.Client
	Search      websearch.Client
	Pages       scrape.Fetcher
	Transcripts scrape.TranscriptFetcher
	Sources     repos.SourceRepo
	Stages      repos.StageRepo
	Links       repos.StageSourceLinkRepo
}

type DeepResearchInput struct {
	PersonID   uuid.UUID
	PersonName string
}

type DeepResearchOptions struct {
	Report func(phase string, pct int, message string)
}

type DeepResearchOutput struct {
	StagesResearched int `json:"stages_researched"`
	SourcesAdded     int `json:"sources_added"`
}

// DeepResearch runs a stage-targeted follow-up discovery pass: for each era
// it plans era-specific queries, vets the hits, merges only URLs the person
// does not already have, extracts the newcomers, and links them straight to
// the era that motivated the search at a fixed high relevance.
func DeepResearch(ctx context.Context, deps DeepResearchDeps, in DeepResearchInput, opts ...DeepResearchOptions) (DeepResearchOutput, error) {
	out := DeepResearchOutput{}
	if deps.DB == nil || deps.Log == nil || deps.LLM == nil || deps.Search == nil ||
		deps.Pages == nil || deps.Transcripts == nil ||
		deps.Sources == nil || deps.Stages == nil || deps.Links == nil {
		return out, fmt.Errorf("deep_research: missing deps")
	}
	if in.PersonID == uuid.Nil {
		return out, fmt.Errorf("deep_research: missing person_id")
	}

	var opt DeepResearchOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	progress := newProgressReporter(types.PhaseStage, opt.Report, 70, 0)

	dbc := dbctx.Context{Ctx: ctx}
	stages, err := deps.Stages.ListByPerson(dbc, in.PersonID)
	if err != nil {
		return out, err
	}
	total := len(stages)
	for i, stage := range stages {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		added, err := researchStage(ctx, deps, in, stage)
		if err != nil {
			return out, err
		}
		out.SourcesAdded += added
		out.StagesResearched++

		pct := 70 + int(math.Round(float64(i+1)/float64(total)*30))
		progress.Update(pct, fmt.Sprintf("researched era %d of %d", i+1, total))
	}
	return out, nil
}

func researchStage(ctx context.Context, deps DeepResearchDeps, in DeepResearchInput, stage *types.Stage) (int, error) {
	plan := stageQueryPlan(in.PersonName, stage)

	candidates, err := ExecuteSearchPlan(ctx, ExecuteSearchPlanDeps{Log: deps.Log, Search: deps.Search}, plan)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	vetted, err := VetCandidates(ctx, VetCandidatesDeps{Log: deps.Log, LLM: deps.LLM}, in.PersonName, candidates)
	if err != nil {
		return 0, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	urls := make([]string, 0, len(vetted))
	for _, c := range vetted {
		urls = append(urls, c.URL)
	}
	existing, err := deps.Sources.ExistingURLs(dbc, in.PersonID, urls)
	if err != nil {
		return 0, err
	}

	var rows []*types.Source
	for _, c := range vetted {
		if existing[c.URL] {
			continue
		}
		src := candidateToSource(in.PersonID, c)
		meta := parseSourceMetadata(src.Metadata)
		meta.DeepResearch = true
		meta.StageHint = stage.Title
		src.Metadata = mustMetadataJSON(meta)
		rows = append(rows, src)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	created, err := deps.Sources.Create(dbc, rows)
	if err != nil {
		return 0, err
	}

	newIDs := make([]uuid.UUID, 0, len(created))
	for _, src := range created {
		newIDs = append(newIDs, src.ID)
	}
	if _, err := ExtractSources(ctx, ExtractSourcesDeps{
		DB:          deps.DB,
		Log:         deps.Log,
		Pages:       deps.Pages,
		Transcripts: deps.Transcripts,
		Sources:     deps.Sources,
	}, ExtractSourcesInput{
		PersonID:      in.PersonID,
		PersonName:    in.PersonName,
		OnlySourceIDs: newIDs,
	}); err != nil {
		return 0, err
	}

	// These were found because of this era; link them to it directly.
	links := make([]*types.StageSourceLink, 0, len(created))
	for _, src := range created {
		links = append(links, &types.StageSourceLink{
			StageID:   stage.ID,
			SourceID:  src.ID,
			Relevance: deepResearchRelevance,
			Rationale: "discovered by era-targeted deep research",
		})
	}
	if _, err := deps.Links.Relink(dbc, links); err != nil {
		return 0, err
	}
	return len(created), nil
}

// stageQueryPlan builds 6-10 era-conditioned queries: two web, two mainstream
// video, two rare video, and up to two turning-point-specific.
func stageQueryPlan(personName string, stage *types.Stage) []PlannedQuery {
	era := stage.Title
	if stage.DateStart != "" || stage.DateEnd != "" {
		era = fmt.Sprintf("%s (%s to %s)", stage.Title, stage.DateStart, stage.DateEnd)
	}
	plan := []PlannedQuery{
		{Query: fmt.Sprintf("%s %s", personName, stage.EraSummary), Kind: websearch.KindWeb, Focus: "era_web"},
		{Query: fmt.Sprintf("%s life %s", personName, era), Kind: websearch.KindWeb, Focus: "era_web"},
		{Query: fmt.Sprintf("%s interview %s", personName, stage.Title), Kind: websearch.KindVideo, Focus: "video_mainstream"},
		{Query: fmt.Sprintf("%s talk documentary %s", personName, era), Kind: websearch.KindVideo, Focus: "video_mainstream"},
		{Query: fmt.Sprintf("%s rare footage %s", personName, era), Kind: websearch.KindVideo, Focus: "video_rare"},
		{Query: fmt.Sprintf("%s archival early recording %s", personName, stage.Title), Kind: websearch.KindVideo, Focus: "video_rare"},
	}

	var points []string
	_ = jsonUnmarshalLenient(stage.TurningPoints, &points)
	for i, tp := range points {
		if i >= 2 {
			break
		}
		tp = strings.TrimSpace(tp)
		if tp == "" {
			continue
		}
		plan = append(plan, PlannedQuery{
			Query: fmt.Sprintf("%s %s", personName, tp),
			Kind:  websearch.KindWeb,
			Focus: "turning_point",
		})
	}
	return plan
}
