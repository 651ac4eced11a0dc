package people_test

import (
	"context"
	"testing"

	"github.com/yungbote/lifeline-backend/internal/data/repos/people"
	"github.com/yungbote/lifeline-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
)

func TestIngestJobUpsertByPhaseNeverDuplicates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	person := testutil.SeedPerson(t, ctx, tx, "Ada Lovelace")
	repo := people.NewIngestJobRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	first, err := repo.UpsertByPhase(dbc, person.ID, types.PhaseDiscover, map[string]interface{}{
		"status":   types.JobStatusRunning,
		"progress": 10,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first == nil || first.Status != types.JobStatusRunning {
		t.Fatalf("first upsert did not insert running job: %+v", first)
	}

	second, err := repo.UpsertByPhase(dbc, person.ID, types.PhaseDiscover, map[string]interface{}{
		"status":   types.JobStatusDone,
		"progress": 100,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a duplicate row for (person, phase)")
	}
	if second.Status != types.JobStatusDone || second.Progress != 100 {
		t.Fatalf("second upsert did not patch fields: %+v", second)
	}

	jobs, err := repo.ListByPerson(dbc, person.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected exactly one job row, got %d", len(jobs))
	}
}

func TestPersonGetByNameCaseInsensitive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	seeded := testutil.SeedPerson(t, ctx, tx, "Ada Lovelace")
	repo := people.NewPersonRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	got, err := repo.GetByName(dbc, "  ada LOVELACE ")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got == nil || got.ID != seeded.ID {
		t.Fatalf("case-insensitive lookup failed: %+v", got)
	}
}
