package steps

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/lifeline-backend/internal/domain"
)

func stageForCards(worldview string, turningPoints []string) *types.Stage {
	raw, _ := json.Marshal(turningPoints)
	return &types.Stage{
		ID:               uuid.New(),
		Title:            "[20-29] - Early Builder",
		EraSummary:       "First major work.",
		WorldviewSummary: worldview,
		TurningPoints:    datatypes.JSON(raw),
	}
}

func sourceWithMeta(srcType string, meta types.SourceMetadata) *types.Source {
	raw, _ := json.Marshal(meta)
	return &types.Source{
		ID:       uuid.New(),
		Type:     srcType,
		Title:    "source title",
		URL:      "https://example.com/s",
		Metadata: datatypes.JSON(raw),
	}
}

func TestBuildStageCardsComposition(t *testing.T) {
	stage := stageForCards("Saw work as a calling.", []string{"met mentor", "first publication"})
	sources := []*types.Source{
		sourceWithMeta(types.SourceTypeArticle, types.SourceMetadata{ImageURLs: []string{"https://example.com/a.jpg"}}),
		sourceWithMeta(types.SourceTypeVideo, types.SourceMetadata{Snippet: "interview clip"}),
	}

	cards := buildStageCards(stage, sources)

	wantTypes := []string{
		types.CardTypeMoment,
		types.CardTypeTurningPoint,
		types.CardTypeTurningPoint,
		types.CardTypeQuote,
		types.CardTypeImage,
		types.CardTypeVideo,
	}
	if len(cards) != len(wantTypes) {
		t.Fatalf("expected %d cards, got %d", len(wantTypes), len(cards))
	}
	for i, c := range cards {
		if c.Type != wantTypes[i] {
			t.Fatalf("card %d type = %q, want %q", i, c.Type, wantTypes[i])
		}
		if c.Order != i {
			t.Fatalf("card %d order = %d", i, c.Order)
		}
		if c.StageID != stage.ID {
			t.Fatalf("card %d stage id mismatch", i)
		}
	}
	if cards[0].Headline != stage.Title || cards[0].Body != stage.EraSummary {
		t.Fatalf("moment card not built from stage: %+v", cards[0])
	}
	if cards[3].Body != stage.WorldviewSummary {
		t.Fatalf("quote card body = %q, want worldview summary", cards[3].Body)
	}
}

func TestBuildStageCardsSkipsEmptyWorldview(t *testing.T) {
	cards := buildStageCards(stageForCards("", nil), nil)
	for _, c := range cards {
		if c.Type == types.CardTypeQuote {
			t.Fatalf("quote card emitted for blank worldview summary")
		}
	}
}

func TestBuildStageCardsCapsTurningPointsAndMedia(t *testing.T) {
	stage := stageForCards("", []string{"a", "b", "c", "d", "e", "f"})
	var sources []*types.Source
	for i := 0; i < 5; i++ {
		sources = append(sources, sourceWithMeta(types.SourceTypeArticle, types.SourceMetadata{ImageURLs: []string{"https://example.com/i.jpg"}}))
		sources = append(sources, sourceWithMeta(types.SourceTypeVideo, types.SourceMetadata{}))
	}

	counts := map[string]int{}
	for _, c := range buildStageCards(stage, sources) {
		counts[c.Type]++
	}
	if counts[types.CardTypeTurningPoint] != maxTurningPointCards {
		t.Fatalf("turning point cards not capped: %d", counts[types.CardTypeTurningPoint])
	}
	if counts[types.CardTypeImage] != maxImageCards {
		t.Fatalf("image cards not capped: %d", counts[types.CardTypeImage])
	}
	if counts[types.CardTypeVideo] != maxVideoCards {
		t.Fatalf("video cards not capped: %d", counts[types.CardTypeVideo])
	}
}
