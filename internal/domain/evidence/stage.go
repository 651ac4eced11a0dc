package evidence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Stage is one age-bounded era of a person's life. Order values are unique
// and dense from 0 per person; the whole set is replaced when segmentation
// reruns.
type Stage struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"person_id"`
	Order            int            `gorm:"column:display_order;not null" json:"order"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	AgeStart         int            `gorm:"column:age_start;not null" json:"age_start"`
	AgeEnd           int            `gorm:"column:age_end;not null" json:"age_end"`
	DateStart        string         `gorm:"column:date_start" json:"date_start,omitempty"`
	DateEnd          string         `gorm:"column:date_end" json:"date_end,omitempty"`
	EraSummary       string         `gorm:"column:era_summary" json:"era_summary,omitempty"`
	WorldviewSummary string         `gorm:"column:worldview_summary" json:"worldview_summary,omitempty"`
	TurningPoints    datatypes.JSON `gorm:"column:turning_points;type:jsonb" json:"turning_points"`
	Confidence       float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Stage) TableName() string { return "stage" }

// StageSourceLink binds a source to exactly one stage. Re-linking deletes the
// prior link first.
type StageSourceLink struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StageID   uuid.UUID `gorm:"type:uuid;not null;index" json:"stage_id"`
	SourceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"source_id"`
	Relevance float64   `gorm:"column:relevance;not null;default:0" json:"relevance"`
	Rationale string    `gorm:"column:rationale" json:"rationale,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StageSourceLink) TableName() string { return "stage_source_link" }
