package evidence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type TimelineCardRepo interface {
	// ReplaceAllForStages drops every card on the named stages and inserts
	// the freshly derived set. Cards are never patched in place.
	ReplaceAllForStages(dbc dbctx.Context, stageIDs []uuid.UUID, rows []*types.TimelineCard) ([]*types.TimelineCard, error)
	ListByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID) ([]*types.TimelineCard, error)
	DeleteByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID, batchSize int) error
}

type timelineCardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTimelineCardRepo(db *gorm.DB, baseLog *logger.Logger) TimelineCardRepo {
	return &timelineCardRepo{db: db, log: baseLog.With("repo", "TimelineCardRepo")}
}

func (r *timelineCardRepo) ReplaceAllForStages(dbc dbctx.Context, stageIDs []uuid.UUID, rows []*types.TimelineCard) ([]*types.TimelineCard, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(stageIDs) == 0 {
		return []*types.TimelineCard{}, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("stage_id IN ?", stageIDs).
		Delete(&types.TimelineCard{}).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*types.TimelineCard{}, nil
	}
	if err := t.WithContext(dbc.Ctx).CreateInBatches(rows, 100).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *timelineCardRepo) ListByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID) ([]*types.TimelineCard, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.TimelineCard
	if len(stageIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("stage_id IN ?", stageIDs).
		Order("display_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *timelineCardRepo) DeleteByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID, batchSize int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(stageIDs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for {
		res := t.WithContext(dbc.Ctx).
			Where("id IN (?)", t.Model(&types.TimelineCard{}).
				Select("id").
				Where("stage_id IN ?", stageIDs).
				Limit(batchSize)).
			Delete(&types.TimelineCard{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
