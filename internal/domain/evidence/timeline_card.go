package evidence

import (
	"time"

	"github.com/google/uuid"
)

const (
	CardTypeMoment       = "moment"
	CardTypeQuote        = "quote"
	CardTypeTurningPoint = "turning_point"
	CardTypeMedia        = "media"
	CardTypeImage        = "image"
	CardTypeVideo        = "video"
)

// TimelineCard is derived presentation state, rebuilt from a stage and its
// linked sources on every publish. Never mutated independently.
type TimelineCard struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StageID   uuid.UUID `gorm:"type:uuid;not null;index" json:"stage_id"`
	Type      string    `gorm:"column:type;not null;index" json:"type"`
	Headline  string    `gorm:"column:headline;not null" json:"headline"`
	Body      string    `gorm:"column:body" json:"body,omitempty"`
	MediaRef  string    `gorm:"column:media_ref" json:"media_ref,omitempty"`
	Order     int       `gorm:"column:display_order;not null;default:0" json:"order"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TimelineCard) TableName() string { return "timeline_card" }
