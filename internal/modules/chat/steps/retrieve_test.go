package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type fakeLLM struct {
	queryVec []float32
}

func (f *fakeLLM) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = f.queryVec
	}
	return out, nil
}

func (f *fakeLLM) GenerateJSON(context.Context, string, string, string, map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeLLM) GenerateText(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

type fakeChunkRepo struct {
	byStage  map[uuid.UUID][]*types.Chunk
	byPerson []*types.Chunk
}

func (f *fakeChunkRepo) Create(dbctx.Context, []*types.Chunk) ([]*types.Chunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) ListByStage(_ dbctx.Context, stageID uuid.UUID) ([]*types.Chunk, error) {
	return f.byStage[stageID], nil
}
func (f *fakeChunkRepo) ListByPerson(dbctx.Context, uuid.UUID) ([]*types.Chunk, error) {
	return f.byPerson, nil
}
func (f *fakeChunkRepo) CountByPerson(dbctx.Context, uuid.UUID) (int64, error) {
	return int64(len(f.byPerson)), nil
}
func (f *fakeChunkRepo) DeleteByPerson(dbctx.Context, uuid.UUID, int) error { return nil }

func chunkWithVec(vec []float32, text string) *types.Chunk {
	raw, _ := json.Marshal(vec)
	return &types.Chunk{
		ID:        uuid.New(),
		Text:      text,
		Embedding: datatypes.JSON(raw),
		Citation:  datatypes.JSON([]byte(`{}`)),
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestScoreAndSelectRanksBySimilarityDescending(t *testing.T) {
	stageID := uuid.New()
	repo := &fakeChunkRepo{byStage: map[uuid.UUID][]*types.Chunk{
		stageID: {
			chunkWithVec([]float32{0, 1, 0}, "orthogonal"),
			chunkWithVec([]float32{1, 0, 0}, "exact"),
			chunkWithVec([]float32{0.7, 0.7, 0}, "diagonal"),
			chunkWithVec([]float32{0.9, 0.1, 0}, "near"),
		},
	}}

	out, err := ScoreAndSelectChunks(context.Background(), ScoreAndSelectDeps{
		Log:    testLogger(t),
		LLM:    &fakeLLM{queryVec: []float32{1, 0, 0}},
		Chunks: repo,
	}, ScoreAndSelectInput{
		PersonID: uuid.New(),
		StageID:  stageID,
		Query:    "what happened",
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if out.UsedFallback {
		t.Fatalf("fallback should not trigger with 4 stage chunks")
	}
	if len(out.Selected) != 4 {
		t.Fatalf("expected 4 results, got %d", len(out.Selected))
	}
	if out.Selected[0].Chunk.Text != "exact" {
		t.Fatalf("best match should rank first, got %q", out.Selected[0].Chunk.Text)
	}
	for i := 1; i < len(out.Selected); i++ {
		if out.Selected[i].Score > out.Selected[i-1].Score {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestScoreAndSelectFallsBackWhenStageSparse(t *testing.T) {
	stageID := uuid.New()
	var personChunks []*types.Chunk
	for i := 0; i < 10; i++ {
		personChunks = append(personChunks, chunkWithVec([]float32{1, float32(i) * 0.1, 0}, fmt.Sprintf("chunk %d", i)))
	}
	repo := &fakeChunkRepo{
		byStage:  map[uuid.UUID][]*types.Chunk{},
		byPerson: personChunks,
	}

	out, err := ScoreAndSelectChunks(context.Background(), ScoreAndSelectDeps{
		Log:    testLogger(t),
		LLM:    &fakeLLM{queryVec: []float32{1, 0, 0}},
		Chunks: repo,
	}, ScoreAndSelectInput{
		PersonID: uuid.New(),
		StageID:  stageID,
		Query:    "what happened",
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !out.UsedFallback {
		t.Fatalf("expected cross-stage fallback for empty stage")
	}
	if len(out.Selected) != DefaultTopK {
		t.Fatalf("expected top-%d from fallback pool, got %d", DefaultTopK, len(out.Selected))
	}
	for i := 1; i < len(out.Selected); i++ {
		if out.Selected[i].Score > out.Selected[i-1].Score {
			t.Fatalf("fallback scores not descending at %d", i)
		}
	}
}

func TestScoreAndSelectFallsBackBelowStageMinimum(t *testing.T) {
	stageID := uuid.New()
	stageChunks := []*types.Chunk{
		chunkWithVec([]float32{1, 0, 0}, "a"),
		chunkWithVec([]float32{0, 1, 0}, "b"),
		chunkWithVec([]float32{0, 0, 1}, "c"),
	}
	repo := &fakeChunkRepo{
		byStage:  map[uuid.UUID][]*types.Chunk{stageID: stageChunks},
		byPerson: append(stageChunks, chunkWithVec([]float32{0.5, 0.5, 0}, "d")),
	}

	out, err := ScoreAndSelectChunks(context.Background(), ScoreAndSelectDeps{
		Log:    testLogger(t),
		LLM:    &fakeLLM{queryVec: []float32{1, 0, 0}},
		Chunks: repo,
	}, ScoreAndSelectInput{
		PersonID: uuid.New(),
		StageID:  stageID,
		Query:    "what happened",
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !out.UsedFallback {
		t.Fatalf("expected fallback with 3 stage chunks at the default top-k")
	}
	if len(out.Selected) != 4 {
		t.Fatalf("expected the full person pool, got %d", len(out.Selected))
	}
}

func TestCollectCitationsDedupesAndCaps(t *testing.T) {
	mkChunk := func(sourceID string) *types.Chunk {
		raw, _ := json.Marshal(types.ChunkCitation{SourceID: sourceID, Title: "t", URL: "u"})
		return &types.Chunk{Citation: datatypes.JSON(raw)}
	}
	var selected []ScoredChunk
	for i := 0; i < 8; i++ {
		selected = append(selected, ScoredChunk{Chunk: mkChunk(fmt.Sprintf("src-%d", i%5))})
	}

	got := collectCitations(selected)
	if len(got) != maxCitations {
		t.Fatalf("expected %d citations, got %d", maxCitations, len(got))
	}
	seen := map[string]bool{}
	for _, c := range got {
		if seen[c.SourceID] {
			t.Fatalf("duplicate citation: %s", c.SourceID)
		}
		seen[c.SourceID] = true
	}
}
