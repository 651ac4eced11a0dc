package ingestrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow drives one ingestion end to end, one activity per phase. On any
// phase failure it records the failure through a bookkeeping activity and
// then fails the workflow itself.
func Workflow(ctx workflow.Context, in WorkflowInput) error {
	if strings.TrimSpace(in.PersonID) == "" {
		return fmt.Errorf("ingestrun: missing person_id")
	}

	phases := phaseOrderFrom(in.FromPhase)
	if len(phases) == 0 {
		return fmt.Errorf("ingestrun: unknown phase %q", in.FromPhase)
	}

	// Activity retries stay off: the adapters retry transient provider errors
	// internally, so an error surfacing from a phase is terminal.
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Hour,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	for _, phase := range phases {
		err := workflow.ExecuteActivity(ctx, ActivityRunPhase, PhaseInput{
			PersonID: in.PersonID,
			Phase:    phase,
		}).Get(ctx, nil)
		if err != nil {
			// Failure bookkeeping must not retry forever; one best-effort shot.
			failCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
				StartToCloseTimeout: time.Minute,
				RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
			})
			_ = workflow.ExecuteActivity(failCtx, ActivityMarkFail, FailInput{
				PersonID: in.PersonID,
				Phase:    phase,
				Error:    err.Error(),
			}).Get(failCtx, nil)
			return err
		}
	}

	return workflow.ExecuteActivity(ctx, ActivityMarkReady, in.PersonID).Get(ctx, nil)
}

// phaseOrderFrom mirrors the ingest package's phase ladder. It is duplicated
// here as a plain constant list so the workflow never imports activity-side
// code.
func phaseOrderFrom(fromPhase string) []string {
	all := []string{"discover", "extract", "stage", "embed", "publish"}
	if strings.TrimSpace(fromPhase) == "" {
		return all
	}
	for i, p := range all {
		if p == fromPhase {
			return all[i:]
		}
	}
	return nil
}
