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
	"github.com/yungbote/lifeline-backend/internal/normalize"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
)

const (
	embedPageSize      = 6
	maxChunksPerSource = 10
	embedBatchSize     = 20
	deleteBatchSize    = 200
)

type ChunkAndEmbedDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	LLM     openai.Client
	Sources repos.SourceRepo
	Stages  repos.StageRepo
	Links   repos.StageSourceLinkRepo
	Chunks  repos.ChunkRepo
}

type ChunkAndEmbedInput struct {
	PersonID uuid.UUID
}

type ChunkAndEmbedOptions struct {
	Report func(phase string, pct int, message string)
}

type ChunkAndEmbedOutput struct {
	SourcesProcessed int `json:"sources_processed"`
	ChunksCreated    int `json:"chunks_created"`
}

// ChunkAndEmbed rebuilds the person's entire chunk set: delete everything,
// then paginate sources, split each source's text into capped chunks, embed
// them in batches, and persist each chunk with its denormalized stage and
// citation. Embeddings are paired to chunks by the provider's explicit index
// field, never by response position.
func ChunkAndEmbed(ctx context.Context, deps ChunkAndEmbedDeps, in ChunkAndEmbedInput, opts ...ChunkAndEmbedOptions) (ChunkAndEmbedOutput, error) {
	out := ChunkAndEmbedOutput{}
	if deps.DB == nil || deps.Log == nil || deps.LLM == nil ||
		deps.Sources == nil || deps.Stages == nil || deps.Links == nil || deps.Chunks == nil {
		return out, fmt.Errorf("chunk_and_embed: missing deps")
	}
	if in.PersonID == uuid.Nil {
		return out, fmt.Errorf("chunk_and_embed: missing person_id")
	}

	var opt ChunkAndEmbedOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	progress := newProgressReporter(types.PhaseEmbed, opt.Report, 0, 0)

	dbc := dbctx.Context{Ctx: ctx}
	if err := deps.Chunks.DeleteByPerson(dbc, in.PersonID, deleteBatchSize); err != nil {
		return out, err
	}

	stageBySource, err := buildStageMap(dbc, deps.Stages, deps.Links, in.PersonID)
	if err != nil {
		return out, err
	}

	processed := 0
	for offset := 0; ; offset += embedPageSize {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		page, err := deps.Sources.ListPage(dbc, in.PersonID, offset, embedPageSize)
		if err != nil {
			return out, err
		}
		if len(page) == 0 {
			break
		}
		for _, src := range page {
			created, err := embedSource(ctx, deps, in.PersonID, src, stageBySource)
			if err != nil {
				return out, err
			}
			out.ChunksCreated += created
			processed++
			progress.Update(asymptoticPct(processed), fmt.Sprintf("embedded %d sources", processed))
		}
	}
	out.SourcesProcessed = processed
	return out, nil
}

func buildStageMap(dbc dbctx.Context, stages repos.StageRepo, links repos.StageSourceLinkRepo, personID uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	stageRows, err := stages.ListByPerson(dbc, personID)
	if err != nil {
		return nil, err
	}
	stageIDs := make([]uuid.UUID, 0, len(stageRows))
	for _, st := range stageRows {
		stageIDs = append(stageIDs, st.ID)
	}
	linkRows, err := links.ListByStageIDs(dbc, stageIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]uuid.UUID, len(linkRows))
	for _, l := range linkRows {
		out[l.SourceID] = l.StageID
	}
	return out, nil
}

func embedSource(ctx context.Context, deps ChunkAndEmbedDeps, personID uuid.UUID, src *types.Source, stageBySource map[uuid.UUID]uuid.UUID) (int, error) {
	text := normalize.SanitizeText(src.RawText + " " + src.TranscriptText)
	pieces := normalize.SplitChunks(text, normalize.DefaultChunkChars)
	if len(pieces) == 0 {
		return 0, nil
	}
	if len(pieces) > maxChunksPerSource {
		pieces = pieces[:maxChunksPerSource]
	}

	citation, err := json.Marshal(types.ChunkCitation{
		SourceID:    src.ID.String(),
		Title:       src.Title,
		URL:         src.URL,
		PublishedAt: src.PublishedAt,
	})
	if err != nil {
		citation = []byte(`{}`)
	}

	var stageID *uuid.UUID
	if id, ok := stageBySource[src.ID]; ok {
		sid := id
		stageID = &sid
	}

	created := 0
	dbc := dbctx.Context{Ctx: ctx}
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch := pieces[start:end]

		vectors, err := deps.LLM.Embed(ctx, batch)
		if err != nil {
			return created, err
		}

		rows := make([]*types.Chunk, 0, len(batch))
		for i, piece := range batch {
			vec, err := json.Marshal(vectors[i])
			if err != nil {
				return created, err
			}
			rows = append(rows, &types.Chunk{
				PersonID:  personID,
				SourceID:  src.ID,
				StageID:   stageID,
				Text:      piece,
				Embedding: datatypes.JSON(vec),
				Citation:  datatypes.JSON(citation),
			})
		}
		if _, err := deps.Chunks.Create(dbc, rows); err != nil {
			return created, err
		}
		created += len(rows)
	}
	return created, nil
}
