package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedPerson(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Person {
	tb.Helper()
	p := &types.Person{
		ID:     uuid.New(),
		Name:   name,
		Status: types.PersonStatusPending,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed person: %v", err)
	}
	return p
}

func SeedSource(tb testing.TB, ctx context.Context, tx *gorm.DB, personID uuid.UUID, url string) *types.Source {
	tb.Helper()
	s := &types.Source{
		ID:       uuid.New(),
		PersonID: personID,
		URL:      url,
		Type:     types.SourceTypeArticle,
		Title:    "seed source",
		Metadata: datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed source: %v", err)
	}
	return s
}

func SeedStage(tb testing.TB, ctx context.Context, tx *gorm.DB, personID uuid.UUID, order, ageStart, ageEnd int) *types.Stage {
	tb.Helper()
	st := &types.Stage{
		ID:            uuid.New(),
		PersonID:      personID,
		Order:         order,
		Title:         fmt.Sprintf("[%d-%d] - seed stage %d", ageStart, ageEnd, order),
		AgeStart:      ageStart,
		AgeEnd:        ageEnd,
		TurningPoints: datatypes.JSON([]byte(`[]`)),
		Confidence:    0.5,
	}
	if err := tx.WithContext(ctx).Create(st).Error; err != nil {
		tb.Fatalf("seed stage: %v", err)
	}
	return st
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, personID, sourceID uuid.UUID, stageID *uuid.UUID, text string, embedding string) *types.Chunk {
	tb.Helper()
	if embedding == "" {
		embedding = `[0.1, 0.2, 0.3]`
	}
	c := &types.Chunk{
		ID:        uuid.New(),
		PersonID:  personID,
		SourceID:  sourceID,
		StageID:   stageID,
		Text:      text,
		Embedding: datatypes.JSON([]byte(embedding)),
		Citation:  datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

func SeedChatSession(tb testing.TB, ctx context.Context, tx *gorm.DB, personID, stageID uuid.UUID) *types.ChatSession {
	tb.Helper()
	s := &types.ChatSession{
		ID:       uuid.New(),
		PersonID: personID,
		StageID:  stageID,
		ClientID: "test-client",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed chat session: %v", err)
	}
	return s
}
