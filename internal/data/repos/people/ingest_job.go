package people

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type IngestJobRepo interface {
	// UpsertByPhase patches the existing (person, phase) row or inserts a new
	// one. At most one row per pair ever exists.
	UpsertByPhase(dbc dbctx.Context, personID uuid.UUID, phase string, updates map[string]interface{}) (*types.IngestJob, error)
	GetByPersonPhase(dbc dbctx.Context, personID uuid.UUID, phase string) (*types.IngestJob, error)
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.IngestJob, error)
	DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error
}

type ingestJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngestJobRepo(db *gorm.DB, baseLog *logger.Logger) IngestJobRepo {
	return &ingestJobRepo{db: db, log: baseLog.With("repo", "IngestJobRepo")}
}

func (r *ingestJobRepo) UpsertByPhase(dbc dbctx.Context, personID uuid.UUID, phase string, updates map[string]interface{}) (*types.IngestJob, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if personID == uuid.Nil || phase == "" {
		return nil, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()

	existing, err := r.GetByPersonPhase(dbc, personID, phase)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := t.WithContext(dbc.Ctx).
			Model(&types.IngestJob{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
		return r.GetByPersonPhase(dbc, personID, phase)
	}

	row := &types.IngestJob{
		PersonID: personID,
		Phase:    phase,
		Status:   types.JobStatusQueued,
	}
	applyJobUpdates(row, updates)
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func applyJobUpdates(row *types.IngestJob, updates map[string]interface{}) {
	if v, ok := updates["status"].(string); ok {
		row.Status = v
	}
	if v, ok := updates["progress"].(int); ok {
		row.Progress = v
	}
	if v, ok := updates["message"].(string); ok {
		row.Message = v
	}
	if v, ok := updates["error"].(string); ok {
		row.Error = v
	}
	if v, ok := updates["started_at"].(*time.Time); ok {
		row.StartedAt = v
	}
	if v, ok := updates["finished_at"].(*time.Time); ok {
		row.FinishedAt = v
	}
}

func (r *ingestJobRepo) GetByPersonPhase(dbc dbctx.Context, personID uuid.UUID, phase string) (*types.IngestJob, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out types.IngestJob
	err := t.WithContext(dbc.Ctx).
		Where("person_id = ? AND phase = ?", personID, phase).
		First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ingestJobRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.IngestJob, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.IngestJob
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingestJobRepo) DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for {
		res := t.WithContext(dbc.Ctx).
			Where("id IN (?)", t.Model(&types.IngestJob{}).
				Select("id").
				Where("person_id = ?", personID).
				Limit(batchSize)).
			Delete(&types.IngestJob{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
