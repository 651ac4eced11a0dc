package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type ChatSessionRepo interface {
	// GetOrCreate returns the existing session for (person, stage, client) or
	// creates one.
	GetOrCreate(dbc dbctx.Context, personID, stageID uuid.UUID, clientID string) (*types.ChatSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error)
	ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.ChatSession, error)
	DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: baseLog.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) GetOrCreate(dbc dbctx.Context, personID, stageID uuid.UUID, clientID string) (*types.ChatSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if personID == uuid.Nil || stageID == uuid.Nil {
		return nil, nil
	}
	var out types.ChatSession
	err := t.WithContext(dbc.Ctx).
		Where("person_id = ? AND stage_id = ? AND client_id = ?", personID, stageID, clientID).
		First(&out).Error
	if err == nil {
		return &out, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	row := &types.ChatSession{PersonID: personID, StageID: stageID, ClientID: clientID}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *chatSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.ChatSession
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *chatSessionRepo) ListByPerson(dbc dbctx.Context, personID uuid.UUID) ([]*types.ChatSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ChatSession
	if err := t.WithContext(dbc.Ctx).
		Where("person_id = ?", personID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatSessionRepo) DeleteByPerson(dbc dbctx.Context, personID uuid.UUID, batchSize int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for {
		res := t.WithContext(dbc.Ctx).
			Where("id IN (?)", t.Model(&types.ChatSession{}).
				Select("id").
				Where("person_id = ?", personID).
				Limit(batchSize)).
			Delete(&types.ChatSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
