package evidence_test

import (
	"context"
	"testing"

	"github.com/yungbote/lifeline-backend/internal/data/repos/evidence"
	"github.com/yungbote/lifeline-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
)

func TestStageSourceLinkRelinkMovesSource(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	person := testutil.SeedPerson(t, ctx, tx, "Ada Lovelace")
	stageA := testutil.SeedStage(t, ctx, tx, person.ID, 0, 0, 17)
	stageB := testutil.SeedStage(t, ctx, tx, person.ID, 1, 18, 36)
	source := testutil.SeedSource(t, ctx, tx, person.ID, "https://example.com/bio")

	repo := evidence.NewStageSourceLinkRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	if _, err := repo.Relink(dbc, []*types.StageSourceLink{
		{StageID: stageA.ID, SourceID: source.ID, Relevance: 0.8},
	}); err != nil {
		t.Fatalf("first link: %v", err)
	}

	// Linking the same source to a different stage must drop the old link.
	if _, err := repo.Relink(dbc, []*types.StageSourceLink{
		{StageID: stageB.ID, SourceID: source.ID, Relevance: 0.6},
	}); err != nil {
		t.Fatalf("relink: %v", err)
	}

	onA, err := repo.ListByStage(dbc, stageA.ID)
	if err != nil {
		t.Fatalf("list stage A: %v", err)
	}
	if len(onA) != 0 {
		t.Fatalf("source still linked to old stage after relink")
	}

	onB, err := repo.ListByStage(dbc, stageB.ID)
	if err != nil {
		t.Fatalf("list stage B: %v", err)
	}
	if len(onB) != 1 || onB[0].SourceID != source.ID {
		t.Fatalf("expected exactly one link on new stage, got %d", len(onB))
	}
}
