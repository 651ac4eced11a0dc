package evidence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lifeline-backend/internal/data/repos/evidence"
	"github.com/yungbote/lifeline-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
)

func TestSourceRepoReplaceAllForPerson(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	person := testutil.SeedPerson(t, ctx, tx, "Ada Lovelace")
	testutil.SeedSource(t, ctx, tx, person.ID, "https://old.example.com/a")
	testutil.SeedSource(t, ctx, tx, person.ID, "https://old.example.com/b")

	repo := evidence.NewSourceRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	replacement := []*types.Source{
		{PersonID: person.ID, URL: "https://new.example.com/1", Type: types.SourceTypeArticle, Title: "one"},
		{PersonID: person.ID, URL: "https://new.example.com/2", Type: types.SourceTypeVideo, Title: "two"},
		{PersonID: person.ID, URL: "https://new.example.com/3", Type: types.SourceTypePost, Title: "three"},
	}
	if _, err := repo.ReplaceAllForPerson(dbc, person.ID, replacement); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	got, err := repo.ListByPerson(dbc, person.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 sources after replace, got %d", len(got))
	}
	for _, s := range got {
		if s.URL == "https://old.example.com/a" || s.URL == "https://old.example.com/b" {
			t.Fatalf("old source survived replace: %s", s.URL)
		}
	}
}

func TestSourceRepoExistingURLs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	person := testutil.SeedPerson(t, ctx, tx, "Grace Hopper")
	testutil.SeedSource(t, ctx, tx, person.ID, "https://example.com/known")

	repo := evidence.NewSourceRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	got, err := repo.ExistingURLs(dbc, person.ID, []string{"https://example.com/known", "https://example.com/new"})
	if err != nil {
		t.Fatalf("existing urls: %v", err)
	}
	if !got["https://example.com/known"] {
		t.Fatalf("known URL not reported as existing")
	}
	if got["https://example.com/new"] {
		t.Fatalf("unknown URL reported as existing")
	}
}

func TestSourceRepoListPageStableOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	person := testutil.SeedPerson(t, ctx, tx, "Alan Turing")
	for i := 0; i < 10; i++ {
		testutil.SeedSource(t, ctx, tx, person.ID, "https://example.com/"+uuid.NewString())
	}

	repo := evidence.NewSourceRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	seen := map[uuid.UUID]bool{}
	total := 0
	for offset := 0; ; offset += 6 {
		page, err := repo.ListPage(dbc, person.ID, offset, 6)
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, s := range page {
			if seen[s.ID] {
				t.Fatalf("source %s appeared on two pages", s.ID)
			}
			seen[s.ID] = true
		}
		total += len(page)
	}
	if total != 10 {
		t.Fatalf("expected pagination to cover all 10 sources, got %d", total)
	}
}
