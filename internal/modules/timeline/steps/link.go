package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/llmjson"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
)

const linkSampleChars = 900

type LinkSourcesDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	LLM     openai.Client
	Sources repos.SourceRepo
	Stages  repos.StageRepo
	Links   repos.StageSourceLinkRepo
}

type LinkSourcesInput struct {
	PersonID   uuid.UUID
	PersonName string
}

type LinkSourcesOptions struct {
	Report func(phase string, pct int, message string)
}

type LinkSourcesOutput struct {
	SourcesLinked    int `json:"sources_linked"`
	FallbackAssigned int `json:"fallback_assigned"`
}

var linkSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"stage_order", "relevance", "rationale"},
	"properties": map[string]any{
		"stage_order": map[string]any{"type": "integer"},
		"relevance":   map[string]any{"type": "number"},
		"rationale":   map[string]any{"type": "string"},
	},
}

// LinkSources assigns every source to its best-fit stage. A malformed or
// out-of-range model answer falls back to a deterministic assignment keyed on
// the source's creation timestamp, so every source always lands somewhere.
func LinkSources(ctx context.Context, deps LinkSourcesDeps, in LinkSourcesInput, opts ...LinkSourcesOptions) (LinkSourcesOutput, error) {
	out := LinkSourcesOutput{}
	if deps.DB == nil || deps.Log == nil || deps.LLM == nil || deps.Sources == nil || deps.Stages == nil || deps.Links == nil {
		return out, fmt.Errorf("link_sources: missing deps")
	}
	if in.PersonID == uuid.Nil {
		return out, fmt.Errorf("link_sources: missing person_id")
	}

	var opt LinkSourcesOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	progress := newProgressReporter(types.PhaseStage, opt.Report, 60, 0)

	dbc := dbctx.Context{Ctx: ctx}
	stages, err := deps.Stages.ListByPerson(dbc, in.PersonID)
	if err != nil {
		return out, err
	}
	if len(stages) == 0 {
		return out, fmt.Errorf("link_sources: person has no stages")
	}
	stageByOrder := make(map[int]*types.Stage, len(stages))
	for _, st := range stages {
		stageByOrder[st.Order] = st
	}
	stageList := renderStageList(stages)

	processed := 0
	for offset := 0; ; offset += extractPageSize {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		page, err := deps.Sources.ListPage(dbc, in.PersonID, offset, extractPageSize)
		if err != nil {
			return out, err
		}
		if len(page) == 0 {
			break
		}
		for _, src := range page {
			link, usedFallback := chooseStage(ctx, deps, in.PersonName, src, stages, stageByOrder, stageList)
			if usedFallback {
				out.FallbackAssigned++
			}
			if _, err := deps.Links.Relink(dbc, []*types.StageSourceLink{link}); err != nil {
				return out, err
			}
			out.SourcesLinked++
			processed++
			done := processed
			if done > 50 {
				done = 50
			}
			progress.UpdateRange(done, 50, 60, 70, fmt.Sprintf("linked %d sources", processed))
		}
	}
	return out, nil
}

func renderStageList(stages []*types.Stage) string {
	var b strings.Builder
	for _, st := range stages {
		fmt.Fprintf(&b, "- order %d: %s — %s\n", st.Order, st.Title, st.EraSummary)
	}
	return b.String()
}

func chooseStage(
	ctx context.Context,
	deps LinkSourcesDeps,
	personName string,
	src *types.Source,
	stages []*types.Stage,
	stageByOrder map[int]*types.Stage,
	stageList string,
) (*types.StageSourceLink, bool) {
	sample := src.RawText
	if sample == "" {
		sample = src.TranscriptText
	}
	if len(sample) > linkSampleChars {
		sample = sample[:linkSampleChars]
	}

	system := "You assign a piece of biographical evidence to the single life era it best describes."
	user := fmt.Sprintf(`Person: %q

Eras:
%s
Evidence:
  title: %s
  url: %s
  type: %s
  sample: %s

Pick the era whose order best fits this evidence, a relevance between 0 and 1, and a one-sentence rationale.`,
		personName, stageList, src.Title, src.URL, src.Type, sample)

	obj, err := deps.LLM.GenerateJSON(ctx, system, user, "stage_assignment", linkSchema)
	if err != nil {
		deps.Log.Warn("Stage assignment request failed; using deterministic fallback",
			"source_id", src.ID.String(),
			"error", err.Error(),
		)
		return fallbackLink(src, stages), true
	}

	order := llmjson.Int(obj, "stage_order", -1)
	stage, ok := stageByOrder[order]
	if !ok {
		return fallbackLink(src, stages), true
	}
	return &types.StageSourceLink{
		StageID:   stage.ID,
		SourceID:  src.ID,
		Relevance: clampRelevance(llmjson.Float(obj, "relevance", 0.5)),
		Rationale: llmjson.Str(obj, "rationale", ""),
	}, false
}

// fallbackLink deterministically assigns a source by its creation timestamp
// modulo the stage count.
func fallbackLink(src *types.Source, stages []*types.Stage) *types.StageSourceLink {
	idx := int(src.CreatedAt.Unix()) % len(stages)
	if idx < 0 {
		idx += len(stages)
	}
	return &types.StageSourceLink{
		StageID:   stages[idx].ID,
		SourceID:  src.ID,
		Relevance: 0.1,
		Rationale: "deterministic assignment by creation time",
	}
}

func clampRelevance(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}
