package evidence

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chunk is a bounded slice of source text with its embedding vector. The
// entire chunk set for a person is rebuilt whenever embedding reruns.
// StageID is denormalized from the source's link at embed time.
type Chunk struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"person_id"`
	SourceID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"source_id"`
	StageID   *uuid.UUID     `gorm:"type:uuid;index" json:"stage_id,omitempty"`
	Text      string         `gorm:"column:text;type:text;not null" json:"text"`
	Embedding datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding"`
	Citation  datatypes.JSON `gorm:"type:jsonb;column:citation" json:"citation"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Chunk) TableName() string { return "chunk" }

// Vector decodes the stored embedding. A missing or malformed value decodes
// to nil, which scores as similarity 0.
func (c *Chunk) Vector() []float32 {
	if c == nil || len(c.Embedding) == 0 {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(c.Embedding, &vec); err != nil {
		return nil
	}
	return vec
}

// ChunkCitation is the typed shape persisted into Chunk.Citation.
type ChunkCitation struct {
	SourceID    string `json:"source_id"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}
