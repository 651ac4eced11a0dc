package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/normalize"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/scrape"
)

const extractPageSize = 6

type ExtractSourcesDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Pages       scrape.Fetcher
	Transcripts scrape.TranscriptFetcher
	Sources     repos.SourceRepo
}

type ExtractSourcesInput struct {
	PersonID   uuid.UUID
	PersonName string
	// OnlySourceIDs restricts extraction to the named sources (deep research
	// uses this to avoid re-extracting the whole set). Empty means all.
	OnlySourceIDs []uuid.UUID
}

type ExtractSourcesOptions struct {
	Report func(phase string, pct int, message string)
}

type ExtractSourcesOutput struct {
	SourcesProcessed int `json:"sources_processed"`
	SourcesFailed    int `json:"sources_failed"`
}

// ExtractSources walks the person's sources page by page and fills raw text,
// transcripts, image URLs, and the quality score. A source that cannot be
// fetched is scored low and skipped, never fatal: many discovered URLs are
// guesses and a dead link is expected.
func ExtractSources(ctx context.Context, deps ExtractSourcesDeps, in ExtractSourcesInput, opts ...ExtractSourcesOptions) (ExtractSourcesOutput, error) {
	out := ExtractSourcesOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Pages == nil || deps.Transcripts == nil || deps.Sources == nil {
		return out, fmt.Errorf("extract_sources: missing deps")
	}
	if in.PersonID == uuid.Nil {
		return out, fmt.Errorf("extract_sources: missing person_id")
	}

	var opt ExtractSourcesOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	progress := newProgressReporter(types.PhaseExtract, opt.Report, 0, 0)

	only := map[uuid.UUID]bool{}
	for _, id := range in.OnlySourceIDs {
		only[id] = true
	}

	dbc := dbctx.Context{Ctx: ctx}
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
			if len(only) > 0 && !only[src.ID] {
				continue
			}
			if err := extractOne(ctx, deps, in.PersonName, src); err != nil {
				deps.Log.Warn("Source extraction failed",
					"source_id", src.ID.String(),
					"url", src.URL,
					"error", err.Error(),
				)
				out.SourcesFailed++
			}
			processed++
			progress.Update(asymptoticPct(processed), fmt.Sprintf("extracted %d sources", processed))
		}
	}
	out.SourcesProcessed = processed
	return out, nil
}

func extractOne(ctx context.Context, deps ExtractSourcesDeps, personName string, src *types.Source) error {
	meta := parseSourceMetadata(src.Metadata)

	var rawText, transcriptText string
	if src.Type == types.SourceTypeVideo {
		transcript, err := deps.Transcripts.Fetch(ctx, src.URL)
		if err == nil {
			transcriptText = normalize.SanitizeText(transcript)
		}
	} else {
		page, err := deps.Pages.Fetch(ctx, src.URL)
		if err != nil {
			score := QualityScore(0, meta.Vetted, meta.Snippet != "")
			_ = deps.Sources.UpdateFields(dbctx.Context{Ctx: ctx}, src.ID, map[string]interface{}{
				"quality_score": score,
			})
			return err
		}
		rawText = normalize.SanitizeText(normalize.StripHTML(page.Body))
		meta.ImageURLs = normalize.ExtractImageURLs(page.Body, src.URL, personName)
	}

	score := QualityScore(len(rawText)+len(transcriptText), meta.Vetted, meta.Snippet != "")
	return deps.Sources.UpdateFields(dbctx.Context{Ctx: ctx}, src.ID, map[string]interface{}{
		"raw_text":        rawText,
		"transcript_text": transcriptText,
		"metadata":        mustMetadataJSON(meta),
		"quality_score":   score,
	})
}

// QualityScore is a length-based confidence heuristic: long extracted text
// scores high, short text medium, and a source with no text at all defaults
// low, lower still when it was never vetted and has no snippet.
func QualityScore(textLen int, vetted bool, hasSnippet bool) float64 {
	if textLen > 800 {
		bonus := float64(textLen) / 50000
		if bonus > 0.09 {
			bonus = 0.09
		}
		return 0.9 + bonus
	}
	if textLen > 0 {
		return 0.55
	}
	if !vetted && !hasSnippet {
		return 0.45
	}
	return 0.5
}
