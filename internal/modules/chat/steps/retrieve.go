package steps

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
)

const DefaultTopK = 8

// ScoredChunk pairs a chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk *types.Chunk
	Score float64
}

type ScoreAndSelectDeps struct {
	Log    *logger.Logger
	LLM    openai.Client
	Chunks repos.ChunkRepo
}

type ScoreAndSelectInput struct {
	PersonID uuid.UUID
	StageID  uuid.UUID
	Query    string
	TopK     int
}

type ScoreAndSelectOutput struct {
	Selected     []ScoredChunk
	UsedFallback bool
}

// ScoreAndSelectChunks embeds the query once and ranks the stage's chunks by
// cosine similarity. When the stage holds too little evidence — fewer than
// max(3, topK/2) chunks — the stage scope is discarded and ranking runs over
// every chunk the person has, flagged as a fallback.
func ScoreAndSelectChunks(ctx context.Context, deps ScoreAndSelectDeps, in ScoreAndSelectInput) (ScoreAndSelectOutput, error) {
	out := ScoreAndSelectOutput{}
	if deps.Log == nil || deps.LLM == nil || deps.Chunks == nil {
		return out, fmt.Errorf("score_and_select: missing deps")
	}
	if in.PersonID == uuid.Nil || in.StageID == uuid.Nil {
		return out, fmt.Errorf("score_and_select: missing person or stage id")
	}
	topK := in.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := deps.LLM.Embed(ctx, []string{in.Query})
	if err != nil {
		return out, err
	}
	if len(vectors) == 0 {
		return out, fmt.Errorf("score_and_select: empty query embedding")
	}
	queryVec := vectors[0]

	dbc := dbctx.Context{Ctx: ctx}
	stageChunks, err := deps.Chunks.ListByStage(dbc, in.StageID)
	if err != nil {
		return out, err
	}

	minStageResults := 3
	if half := topK / 2; half > minStageResults {
		minStageResults = half
	}

	pool := stageChunks
	if len(stageChunks) < minStageResults {
		pool, err = deps.Chunks.ListByPerson(dbc, in.PersonID)
		if err != nil {
			return out, err
		}
		out.UsedFallback = true
	}

	scored := make([]ScoredChunk, 0, len(pool))
	for _, c := range pool {
		scored = append(scored, ScoredChunk{Chunk: c, Score: cosine(queryVec, c.Vector())})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > topK {
		scored = scored[:topK]
	}
	out.Selected = scored
	return out, nil
}
