package evidence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type StageRepo interface {
	// ReplaceAllForPerson swaps the person's whole stage set atomically when
	// run inside a transaction.
	ReplaceAllForPerson(dbc dbctx.Context, personID uuid.UUID, rows []*types.Stage) ([]*types.Stage, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Stage, error)
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Stage, error)
	DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error
}

type stageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	return &stageRepo{db: db, log: baseLog.With("repo", "StageRepo")}
}

func (r *stageRepo) ReplaceAllForPerson(dbc dbctx.Context, personID uuid.UUID, rows []*types.Stage) ([]*types.Stage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if personID == uuid.Nil {
		return []*types.Stage{}, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Delete(&types.Stage{}).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*types.Stage{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Stage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Stage
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *stageRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Stage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Stage
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("display_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stageRepo) DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for {
		res := t.WithContext(dbc.Ctx).
			Where("id IN (?)", t.Model(&types.Stage{}).
				Select("id").
				Where("person_id = ?", personID).
				Limit(batchSize)).
			Delete(&types.Stage{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
