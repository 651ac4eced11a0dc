package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

const (
	maxTurningPointCards = 4
	maxImageCards        = 2
	maxVideoCards        = 2
)

type PublishTimelineDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Sources repos.SourceRepo
	Stages  repos.StageRepo
	Links   repos.StageSourceLinkRepo
	Cards   repos.TimelineCardRepo
}

type PublishTimelineInput struct {
	PersonID uuid.UUID
}

type PublishTimelineOptions struct {
	Report func(phase string, pct int, message string)
}

type PublishTimelineOutput struct {
	CardsCreated int `json:"cards_created"`
}

// PublishTimeline derives presentation cards for every stage from the stage
// itself and its linked sources. The card set is rebuilt wholesale on every
// publish; cards carry no state of their own.
func PublishTimeline(ctx context.Context, deps PublishTimelineDeps, in PublishTimelineInput, opts ...PublishTimelineOptions) (PublishTimelineOutput, error) {
	out := PublishTimelineOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Sources == nil || deps.Stages == nil || deps.Links == nil || deps.Cards == nil {
		return out, fmt.Errorf("publish_timeline: missing deps")
	}
	if in.PersonID == uuid.Nil {
		return out, fmt.Errorf("publish_timeline: missing person_id")
	}

	var opt PublishTimelineOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	progress := newProgressReporter(types.PhasePublish, opt.Report, 0, 0)

	dbc := dbctx.Context{Ctx: ctx}
	stages, err := deps.Stages.ListByPerson(dbc, in.PersonID)
	if err != nil {
		return out, err
	}
	stageIDs := make([]uuid.UUID, 0, len(stages))
	for _, st := range stages {
		stageIDs = append(stageIDs, st.ID)
	}
	links, err := deps.Links.ListByStageIDs(dbc, stageIDs)
	if err != nil {
		return out, err
	}
	sourcesByStage, err := loadSourcesByStage(dbc, deps.Sources, links)
	if err != nil {
		return out, err
	}

	var rows []*types.TimelineCard
	for i, stage := range stages {
		rows = append(rows, buildStageCards(stage, sourcesByStage[stage.ID])...)
		progress.UpdateRange(i+1, len(stages), 0, 90, fmt.Sprintf("published era %d of %d", i+1, len(stages)))
	}

	if _, err := deps.Cards.ReplaceAllForStages(dbc, stageIDs, rows); err != nil {
		return out, err
	}
	out.CardsCreated = len(rows)
	return out, nil
}

func loadSourcesByStage(dbc dbctx.Context, sources repos.SourceRepo, links []*types.StageSourceLink) (map[uuid.UUID][]*types.Source, error) {
	ids := make([]uuid.UUID, 0, len(links))
	stageBySource := make(map[uuid.UUID]uuid.UUID, len(links))
	for _, l := range links {
		ids = append(ids, l.SourceID)
		stageBySource[l.SourceID] = l.StageID
	}
	rows, err := sources.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID][]*types.Source{}
	for _, src := range rows {
		stageID := stageBySource[src.ID]
		out[stageID] = append(out[stageID], src)
	}
	return out, nil
}

func buildStageCards(stage *types.Stage, sources []*types.Source) []*types.TimelineCard {
	var cards []*types.TimelineCard
	order := 0
	add := func(cardType, headline, body, mediaRef string) {
		cards = append(cards, &types.TimelineCard{
			StageID:  stage.ID,
			Type:     cardType,
			Headline: headline,
			Body:     body,
			MediaRef: mediaRef,
			Order:    order,
		})
		order++
	}

	add(types.CardTypeMoment, stage.Title, stage.EraSummary, "")

	var points []string
	_ = jsonUnmarshalLenient(stage.TurningPoints, &points)
	for i, tp := range points {
		if i >= maxTurningPointCards {
			break
		}
		add(types.CardTypeTurningPoint, tp, "", "")
	}

	if stage.WorldviewSummary != "" {
		add(types.CardTypeQuote, "", stage.WorldviewSummary, "")
	}

	images, videos := 0, 0
	for _, src := range sources {
		meta := parseSourceMetadata(src.Metadata)
		if images < maxImageCards && len(meta.ImageURLs) > 0 {
			add(types.CardTypeImage, src.Title, "", meta.ImageURLs[0])
			images++
		}
		if videos < maxVideoCards && src.Type == types.SourceTypeVideo {
			add(types.CardTypeVideo, src.Title, meta.Snippet, src.URL)
			videos++
		}
	}
	return cards
}
