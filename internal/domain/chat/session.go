package chat

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession scopes a conversation to one stage of one person. One session
// exists per (person, stage, client).
type ChatSession struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID  uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_session_scope,unique" json:"person_id"`
	StageID   uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_session_scope,unique" json:"stage_id"`
	ClientID  string    `gorm:"column:client_id;index:idx_chat_session_scope,unique" json:"client_id,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ChatSession) TableName() string { return "chat_session" }
