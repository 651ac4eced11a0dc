package ingestrun

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/yungbote/lifeline-backend/internal/jobs/ingest"
)

// Activities adapts the ingest pipeline to Temporal. Each phase runs as its
// own activity so a worker crash resumes at the failed phase, not at the
// beginning. The Redis lease is deliberately absent here: workflow id
// uniqueness already guarantees one ingestion per person.
type Activities struct {
	Deps ingest.Deps
}

func (a *Activities) RunPhase(ctx context.Context, in PhaseInput) error {
	personID, err := uuid.Parse(in.PersonID)
	if err != nil || personID == uuid.Nil {
		return fmt.Errorf("ingestrun: invalid person_id")
	}

	stopHB := startHeartbeat(ctx)
	defer stopHB()

	return ingest.RunPhase(ctx, a.Deps, personID, in.Phase)
}

func (a *Activities) MarkReady(ctx context.Context, personID string) error {
	id, err := uuid.Parse(personID)
	if err != nil || id == uuid.Nil {
		return fmt.Errorf("ingestrun: invalid person_id")
	}
	return ingest.MarkReady(ctx, a.Deps, id)
}

func (a *Activities) MarkFailed(ctx context.Context, in FailInput) error {
	id, err := uuid.Parse(in.PersonID)
	if err != nil || id == uuid.Nil {
		return fmt.Errorf("ingestrun: invalid person_id")
	}
	ingest.MarkFailed(ctx, a.Deps, id, in.Phase, fmt.Errorf("%s", in.Error))
	return nil
}

func startHeartbeat(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		hb := time.NewTicker(30 * time.Second)
		defer hb.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-hb.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}
