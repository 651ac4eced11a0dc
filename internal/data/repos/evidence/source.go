package evidence

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type SourceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Source) ([]*types.Source, error)
	// ReplaceAllForPerson deletes every existing source for the person and
	// inserts the new set in one transaction scope.
	ReplaceAllForPerson(dbc dbctx.Context, personID uuid.UUID, rows []*types.Source) ([]*types.Source, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Source, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Source, error)
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Source, error)
	// ListPage paginates a person's sources in stable creation order.
	ListPage(dbc dbctx.Context, personID uuid.UUID, offset, limit int) ([]*types.Source, error)
	// ExistingURLs returns which of the candidate URLs the person already has.
	ExistingURLs(dbc dbctx.Context, personID uuid.UUID, urls []string) (map[string]bool, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error
}

type sourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return &sourceRepo{db: db, log: baseLog.With("repo", "SourceRepo")}
}

func (r *sourceRepo) Create(dbc dbctx.Context, rows []*types.Source) ([]*types.Source, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Source{}, nil
	}
	if err := t.WithContext(dbc.Ctx).CreateInBatches(rows, 100).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sourceRepo) ReplaceAllForPerson(dbc dbctx.Context, personID uuid.UUID, rows []*types.Source) ([]*types.Source, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if personID == uuid.Nil {
		return []*types.Source{}, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Delete(&types.Source{}).Error; err != nil {
		return nil, err
	}
	return r.Create(dbctx.Context{Ctx: dbc.Ctx, Tx: t}, rows)
}

func (r *sourceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Source, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *sourceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Source, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Source
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.Source, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Source
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) ListPage(dbc dbctx.Context, personID uuid.UUID, offset, limit int) ([]*types.Source, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 6
	}
	var out []*types.Source
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) ExistingURLs(dbc dbctx.Context, personID uuid.UUID, urls []string) (map[string]bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := map[string]bool{}
	if personID == uuid.Nil || len(urls) == 0 {
		return out, nil
	}
	var existing []string
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Source{}).
		Where("person_id = ? AND url IN ?", personID, urls).
		Pluck("url", &existing).Error; err != nil {
		return nil, err
	}
	for _, u := range existing {
		out[strings.TrimSpace(u)] = true
	}
	return out, nil
}

func (r *sourceRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Source{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sourceRepo) DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for {
		res := t.WithContext(dbc.Ctx).
			Where("id IN (?)", t.Model(&types.Source{}).
				Select("id").
				Where("person_id = ?", personID).
				Limit(batchSize)).
			Delete(&types.Source{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
