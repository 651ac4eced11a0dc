package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/lifeline-backend/internal/platform/llmjson"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
	"github.com/yungbote/lifeline-backend/internal/platform/websearch"
)

// PlannedQuery is one search the discovery sweep will execute.
type PlannedQuery struct {
	Query string
	Kind  websearch.Kind
	Focus string // e.g. "biography", "video_mainstream", "video_rare", "historical"
}

type PlanQueriesDeps struct {
	Log *logger.Logger
	LLM openai.Client
}

type PlanQueriesInput struct {
	PersonName string
}

var planQueriesSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"queries"},
	"properties": map[string]any{
		"queries": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"query", "kind", "focus"},
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"kind":  map[string]any{"type": "string", "enum": []string{"web", "video"}},
					"focus": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// PlanDiscoveryQueries asks the model for 8-14 search queries covering general
// biography, domain work, mainstream and rare video, and a historical-dated
// angle. Malformed output falls back to a deterministic plan.
func PlanDiscoveryQueries(ctx context.Context, deps PlanQueriesDeps, in PlanQueriesInput) ([]PlannedQuery, error) {
	if deps.Log == nil || deps.LLM == nil {
		return nil, fmt.Errorf("plan_queries: missing deps")
	}
	name := strings.TrimSpace(in.PersonName)
	if name == "" {
		return nil, fmt.Errorf("plan_queries: missing person name")
	}

	system := "You are a research planner building a search strategy to reconstruct a person's life story from public web and video sources."
	user := fmt.Sprintf(`Produce between 8 and 14 search queries for researching the life of %q.
Cover all of:
- general biography and life overview (web)
- their specific domain, work, or notable output (web)
- mainstream interviews or talks (video)
- rare, early, or obscure footage (video)
- at least one query with explicit years or decades relevant to their life (web)
Each query gets a "kind" of "web" or "video" and a short "focus" label.`, name)

	obj, err := deps.LLM.GenerateJSON(ctx, system, user, "discovery_query_plan", planQueriesSchema)
	if err != nil {
		return nil, err
	}

	plan := parsePlannedQueries(obj)
	if len(plan) < 4 {
		deps.Log.Warn("Query plan too small; using deterministic plan", "person", name, "planned", len(plan))
		return fallbackQueryPlan(name), nil
	}
	if len(plan) > 14 {
		plan = plan[:14]
	}
	return plan, nil
}

func parsePlannedQueries(obj map[string]any) []PlannedQuery {
	raw := llmjson.Objects(obj, "queries")
	out := make([]PlannedQuery, 0, len(raw))
	for _, q := range raw {
		query := strings.TrimSpace(llmjson.Str(q, "query", ""))
		if query == "" {
			continue
		}
		kind := websearch.KindWeb
		if llmjson.Str(q, "kind", "web") == "video" {
			kind = websearch.KindVideo
		}
		out = append(out, PlannedQuery{
			Query: query,
			Kind:  kind,
			Focus: llmjson.Str(q, "focus", "general"),
		})
	}
	return out
}

func fallbackQueryPlan(name string) []PlannedQuery {
	return []PlannedQuery{
		{Query: name + " biography", Kind: websearch.KindWeb, Focus: "biography"},
		{Query: name + " life story early years", Kind: websearch.KindWeb, Focus: "biography"},
		{Query: name + " career work achievements", Kind: websearch.KindWeb, Focus: "domain"},
		{Query: name + " interview", Kind: websearch.KindVideo, Focus: "video_mainstream"},
		{Query: name + " rare footage early interview", Kind: websearch.KindVideo, Focus: "video_rare"},
		{Query: name + " profile history timeline", Kind: websearch.KindWeb, Focus: "historical"},
	}
}
