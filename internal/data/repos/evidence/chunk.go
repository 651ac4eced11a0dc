package evidence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type ChunkRepo interface {
	Create(dbc dbctx.Context, rows []*types.Chunk) ([]*types.Chunk, error)
	ListByStage(dbc dbctx.Context, stageID uuid.UUID) ([]*types.Chunk, error)
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Chunk, error)
	CountByPerson(dbc dbctx.Context, personID uuid.UUID) (int64, error)
	DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) Create(dbc dbctx.Context, rows []*types.Chunk) ([]*types.Chunk, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Chunk{}, nil
	}

	// Text plus embedding rows are large; keep insert batches small.
	if err := t.WithContext(dbc.Ctx).CreateInBatches(rows, 50).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chunkRepo) ListByStage(dbc dbctx.Context, stageID uuid.UUID) ([]*types.Chunk, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Chunk
	if stageID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("stage_id = ?", stageID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Chunk, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Chunk
	if personID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) CountByPerson(dbc dbctx.Context, personID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Chunk{}).
		Where("person_id = ?", personID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *chunkRepo) DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for {
		res := t.WithContext(dbc.Ctx).
			Where("id IN (?)", t.Model(&types.Chunk{}).
				Select("id").
				Where("person_id = ?", personID).
				Limit(batchSize)).
			Delete(&types.Chunk{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
