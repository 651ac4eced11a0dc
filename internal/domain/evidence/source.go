package evidence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SourceTypeArticle   = "article"
	SourceTypeVideo     = "video"
	SourceTypePost      = "post"
	SourceTypeInterview = "interview"
	SourceTypeOther     = "other"
)

// Source is one discovered piece of evidence about a person. Metadata holds
// the loosely-typed provider payload (snippet, image URLs, vetting flags).
type Source struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"person_id"`
	URL            string         `gorm:"column:url;not null;index" json:"url"`
	Type           string         `gorm:"column:type;not null;index" json:"type"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	PublishedAt    string         `gorm:"column:published_at" json:"published_at,omitempty"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	RawText        string         `gorm:"column:raw_text" json:"raw_text,omitempty"`
	TranscriptText string         `gorm:"column:transcript_text" json:"transcript_text,omitempty"`
	QualityScore   float64        `gorm:"column:quality_score;not null;default:0" json:"quality_score"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Source) TableName() string { return "source" }

// SourceMetadata is the typed shape persisted into Source.Metadata. Parse
// failures fall back to the zero value, never an error.
type SourceMetadata struct {
	Snippet      string   `json:"snippet,omitempty"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	Vetted       bool     `json:"vetted,omitempty"`
	VetReason    string   `json:"vet_reason,omitempty"`
	DeepResearch bool     `json:"deep_research,omitempty"`
	StageHint    string   `json:"stage_hint,omitempty"`
}
