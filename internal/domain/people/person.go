package people

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PersonStatusPending    = "pending"
	PersonStatusProcessing = "processing"
	PersonStatusReady      = "ready"
	PersonStatusFailed     = "failed"
)

type Person struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name   string    `gorm:"column:name;not null;index" json:"name"`
	Status string    `gorm:"column:status;not null;index;default:pending" json:"status"`
	// SeedURLs are caller-supplied starting URLs, folded into discovery on
	// every (re)ingestion.
	SeedURLs  datatypes.JSON `gorm:"column:seed_urls;type:jsonb" json:"seed_urls,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Person) TableName() string { return "person" }

// SeedURLList decodes the stored seed URLs; malformed payloads yield nil.
func (p *Person) SeedURLList() []string {
	if p == nil || len(p.SeedURLs) == 0 {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(p.SeedURLs, &urls); err != nil {
		return nil
	}
	return urls
}
