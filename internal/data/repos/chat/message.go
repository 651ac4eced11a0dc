package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, row *types.ChatMessage) (*types.ChatMessage, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.ChatMessage, error)
	// ListRecentBySession returns the newest messages in chronological order.
	ListRecentBySession(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []uuid.UUID, batchSize int) error
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, row *types.ChatMessage) (*types.ChatMessage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *chatMessageRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.ChatMessage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ChatMessage
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatMessageRepo) ListRecentBySession(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var newest []*types.ChatMessage
	if err := t.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&newest).Error; err != nil {
		return nil, err
	}
	out := make([]*types.ChatMessage, len(newest))
	for i, m := range newest {
		out[len(newest)-1-i] = m
	}
	return out, nil
}

func (r *chatMessageRepo) DeleteBySessionIDs(dbc dbctx.Context, sessionIDs []uuid.UUID, batchSize int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(sessionIDs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for {
		res := t.WithContext(dbc.Ctx).
			Where("id IN (?)", t.Model(&types.ChatMessage{}).
				Select("id").
				Where("session_id IN ?", sessionIDs).
				Limit(batchSize)).
			Delete(&types.ChatMessage{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
	}
}
