package evidence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type StageSourceLinkRepo interface {
	// Relink deletes any prior links for the sources named in rows, then
	// inserts the new links. Enforces the one-stage-per-source invariant.
	Relink(dbc dbctx.Context, rows []*types.StageSourceLink) ([]*types.StageSourceLink, error)
	ListByStage(dbc dbctx.Context, stageID uuid.UUID) ([]*types.StageSourceLink, error)
	ListByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID) ([]*types.StageSourceLink, error)
	DeleteByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID, batchSize int) error
}

type stageSourceLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageSourceLinkRepo(db *gorm.DB, baseLog *logger.Logger) StageSourceLinkRepo {
	return &stageSourceLinkRepo{db: db, log: baseLog.With("repo", "StageSourceLinkRepo")}
}

func (r *stageSourceLinkRepo) Relink(dbc dbctx.Context, rows []*types.StageSourceLink) ([]*types.StageSourceLink, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.StageSourceLink{}, nil
	}
	sourceIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row != nil && row.SourceID != uuid.Nil {
			sourceIDs = append(sourceIDs, row.SourceID)
		}
	}
	if err := t.WithContext(dbc.Ctx).
		Where("source_id IN ?", sourceIDs).
		Delete(&types.StageSourceLink{}).Error; err != nil {
		return nil, err
	}
	if err := t.WithContext(dbc.Ctx).CreateInBatches(rows, 100).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stageSourceLinkRepo) ListByStage(dbc dbctx.Context, stageID uuid.UUID) ([]*types.StageSourceLink, error) {
	if stageID == uuid.Nil {
		return nil, nil
	}
	return r.ListByStageIDs(dbc, []uuid.UUID{stageID})
}

func (r *stageSourceLinkRepo) ListByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID) ([]*types.StageSourceLink, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.StageSourceLink
	if len(stageIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("stage_id IN ?", stageIDs).
		Order("relevance DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stageSourceLinkRepo) DeleteByStageIDs(dbc dbctx.Context, stageIDs []uuid.UUID, batchSize int) error {
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
			Where("id IN (?)", t.Model(&types.StageSourceLink{}).
				Select("id").
				Where("stage_id IN ?", stageIDs).
				Limit(batchSize)).
			Delete(&types.StageSourceLink{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
