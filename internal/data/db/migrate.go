package db

import (
	"fmt"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// People + pipeline jobs
		// =========================
		&types.Person{},
		&types.IngestJob{},

		// =========================
		// Evidence (sources, stages, links, chunks, cards)
		// =========================
		&types.Source{},
		&types.Stage{},
		&types.StageSourceLink{},
		&types.Chunk{},
		&types.TimelineCard{},

		// =========================
		// Chat
		// =========================
		&types.ChatSession{},
		&types.ChatMessage{},
	)
}

func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}
