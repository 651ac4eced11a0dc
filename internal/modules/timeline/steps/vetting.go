package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/lifeline-backend/internal/platform/llmjson"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
)

const (
	vetBatchSize    = 15
	vetMinSurvivors = 3
	vetSnippetChars = 300
)

type VetCandidatesDeps struct {
	Log *logger.Logger
	LLM openai.Client
}

var vetSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"valid_indices"},
	"properties": map[string]any{
		"valid_indices": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "integer"},
		},
	},
}

// VetCandidates asks the model, batch by batch, which candidates genuinely
// concern the named person. If fewer than 3 candidates survive overall, the
// vetting result is discarded and the full set is kept unvetted: too little
// evidence is worse than imprecise evidence.
func VetCandidates(ctx context.Context, deps VetCandidatesDeps, personName string, candidates []SourceCandidate) ([]SourceCandidate, error) {
	if deps.Log == nil || deps.LLM == nil {
		return nil, fmt.Errorf("vet_candidates: missing deps")
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	var survivors []SourceCandidate
	for start := 0; start < len(candidates); start += vetBatchSize {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		end := start + vetBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		valid, err := vetBatch(ctx, deps, personName, batch)
		if err != nil {
			deps.Log.Warn("Vetting batch failed; keeping batch unvetted", "person", personName, "error", err.Error())
			survivors = append(survivors, batch...)
			continue
		}
		for _, idx := range valid {
			if idx >= 0 && idx < len(batch) {
				c := batch[idx]
				c.Vetted = true
				c.VetReason = "identity confirmed"
				survivors = append(survivors, c)
			}
		}
	}

	if len(survivors) < vetMinSurvivors {
		deps.Log.Warn("Vetting left too few sources; keeping full discovered set",
			"person", personName,
			"survivors", len(survivors),
			"discovered", len(candidates),
		)
		return candidates, nil
	}
	return survivors, nil
}

func vetBatch(ctx context.Context, deps VetCandidatesDeps, personName string, batch []SourceCandidate) ([]int, error) {
	var b strings.Builder
	for i, c := range batch {
		snippet := c.Snippet
		if len(snippet) > vetSnippetChars {
			snippet = snippet[:vetSnippetChars]
		}
		fmt.Fprintf(&b, "%d. title: %s\n   url: %s\n   snippet: %s\n", i, c.Title, c.URL, snippet)
	}

	system := "You verify whether web results are about one specific person. Be strict: reject results about a different person with the same name, generic pages, and anything you cannot verify from the given text."
	user := fmt.Sprintf("Target person: %q\n\nCandidates:\n%s\nReturn the indices of candidates that are genuinely about this specific person.", personName, b.String())

	obj, err := deps.LLM.GenerateJSON(ctx, system, user, "source_vetting", vetSchema)
	if err != nil {
		return nil, err
	}
	return llmjson.Ints(obj, "valid_indices"), nil
}
