package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a session's append-only log.
type ChatMessage struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Role         string         `gorm:"column:role;not null" json:"role"`
	Content      string         `gorm:"column:content;type:text;not null" json:"content"`
	Citations    datatypes.JSON `gorm:"type:jsonb;column:citations" json:"citations"`
	UsedFallback bool           `gorm:"column:used_fallback;not null;default:false" json:"used_fallback"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

// Citation is the typed element persisted into ChatMessage.Citations.
type Citation struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
}
