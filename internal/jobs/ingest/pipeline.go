package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/modules/timeline/steps"
	"github.com/yungbote/lifeline-backend/internal/observability"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
	"github.com/yungbote/lifeline-backend/internal/platform/redisx"
	"github.com/yungbote/lifeline-backend/internal/platform/scrape"
	"github.com/yungbote/lifeline-backend/internal/platform/websearch"
)

// Deps carries everything the pipeline needs; the orchestrator owns no state
// of its own. All cross-phase state lives in storage, which is what makes a
// failed phase retryable without replaying earlier phases.
type Deps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	LLM         openai.Client
	Search      websearch.Client
	Pages       scrape.Fetcher
	Transcripts scrape.TranscriptFetcher
	Repos       repos.All
	Lease       *redisx.IngestLease
}

func (d Deps) validate() error {
	if d.DB == nil || d.Log == nil || d.LLM == nil || d.Search == nil ||
		d.Pages == nil || d.Transcripts == nil {
		return fmt.Errorf("ingest: missing deps")
	}
	return nil
}

// Input selects the person and, for re-ingestion, the phase to resume from.
type Input struct {
	PersonID  uuid.UUID
	FromPhase string
}

var ErrIngestInProgress = fmt.Errorf("ingestion already in progress for person")

// Run executes the ingestion phases strictly in order, each phase reading its
// inputs back from storage. Any error marks the person and the running job
// failed and is returned to the scheduler; nothing is swallowed.
func Run(ctx context.Context, deps Deps, in Input) error {
	if err := deps.validate(); err != nil {
		return err
	}
	if in.PersonID == uuid.Nil {
		return fmt.Errorf("ingest: missing person_id")
	}

	phases := PhasesFrom(in.FromPhase)
	if len(phases) == 0 {
		return fmt.Errorf("ingest: unknown phase %q", in.FromPhase)
	}

	if deps.Lease != nil {
		ok, err := deps.Lease.Acquire(ctx, in.PersonID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrIngestInProgress
		}
		defer deps.Lease.Release(context.WithoutCancel(ctx), in.PersonID)
	}

	for _, phase := range phases {
		// Cancellation is honored at phase boundaries only and is treated as
		// a failure transition, same as any other error.
		if err := ctx.Err(); err != nil {
			MarkFailed(ctx, deps, in.PersonID, phase, err)
			return err
		}
		if err := RunPhase(ctx, deps, in.PersonID, phase); err != nil {
			MarkFailed(ctx, deps, in.PersonID, phase, err)
			return err
		}
	}

	return MarkReady(ctx, deps, in.PersonID)
}

// PhasesFrom returns the canonical phase order, starting at fromPhase when
// set. Unknown phases return nil.
func PhasesFrom(fromPhase string) []string {
	all := types.Phases()
	if fromPhase == "" {
		return all
	}
	for i, p := range all {
		if p == fromPhase {
			return all[i:]
		}
	}
	return nil
}

// RunPhase executes one phase end to end: marks the person processing, flips
// the phase job to running, executes the step functions with progress wired
// into the job row, and closes the job out at 100 on success. Failure
// bookkeeping is the caller's responsibility so that both the inline path and
// the workflow path share one failure transition.
func RunPhase(ctx context.Context, deps Deps, personID uuid.UUID, phase string) error {
	if err := deps.validate(); err != nil {
		return err
	}

	dbc := dbctx.Context{Ctx: ctx}
	log := deps.Log.With("person_id", personID.String(), "phase", phase)
	start := time.Now()

	person, err := deps.Repos.Person.GetByID(dbc, personID)
	if err != nil {
		return err
	}
	if person == nil {
		return fmt.Errorf("ingest: person %s not found", personID)
	}
	if err := deps.Repos.Person.UpdateStatus(dbc, personID, types.PersonStatusProcessing); err != nil {
		return err
	}

	ctx, span := observability.Tracer().Start(ctx, "ingest."+phase)
	span.SetAttributes(attribute.String("person.id", personID.String()))
	defer span.End()

	now := time.Now().UTC()
	if _, err := deps.Repos.IngestJob.UpsertByPhase(dbc, personID, phase, map[string]interface{}{
		"status":      types.JobStatusRunning,
		"progress":    0,
		"message":     "",
		"error":       "",
		"started_at":  &now,
		"finished_at": (*time.Time)(nil),
	}); err != nil {
		return err
	}

	report := func(reportPhase string, pct int, message string) {
		if _, err := deps.Repos.IngestJob.UpsertByPhase(dbc, personID, reportPhase, map[string]interface{}{
			"status":   types.JobStatusRunning,
			"progress": pct,
			"message":  message,
		}); err != nil {
			log.Warn("Progress update failed", "error", err.Error())
		}
	}

	log.Info("Phase starting")
	err = executePhase(ctx, deps, person, phase, report)
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObservePhase(phase, status, time.Since(start))
	}
	if err != nil {
		return err
	}

	done := time.Now().UTC()
	if _, err := deps.Repos.IngestJob.UpsertByPhase(dbc, personID, phase, map[string]interface{}{
		"status":      types.JobStatusDone,
		"progress":    100,
		"finished_at": &done,
	}); err != nil {
		return err
	}
	log.Info("Phase complete", "elapsed", time.Since(start).String())
	return nil
}

func executePhase(ctx context.Context, deps Deps, person *types.Person, phase string, report func(string, int, string)) error {
	switch phase {
	case types.PhaseDiscover:
		_, err := steps.DiscoverSources(ctx, steps.DiscoverSourcesDeps{
			DB:      deps.DB,
			Log:     deps.Log,
			LLM:     deps.LLM,
			Search:  deps.Search,
			Sources: deps.Repos.Source,
		}, steps.DiscoverSourcesInput{
			PersonID:   person.ID,
			PersonName: person.Name,
			SeedURLs:   person.SeedURLList(),
		}, steps.DiscoverSourcesOptions{Report: report})
		return err

	case types.PhaseExtract:
		_, err := steps.ExtractSources(ctx, steps.ExtractSourcesDeps{
			DB:          deps.DB,
			Log:         deps.Log,
			Pages:       deps.Pages,
			Transcripts: deps.Transcripts,
			Sources:     deps.Repos.Source,
		}, steps.ExtractSourcesInput{
			PersonID:   person.ID,
			PersonName: person.Name,
		}, steps.ExtractSourcesOptions{Report: report})
		return err

	case types.PhaseStage:
		if _, err := steps.SegmentStages(ctx, steps.SegmentStagesDeps{
			DB:      deps.DB,
			Log:     deps.Log,
			LLM:     deps.LLM,
			Sources: deps.Repos.Source,
			Stages:  deps.Repos.Stage,
		}, steps.SegmentStagesInput{
			PersonID:   person.ID,
			PersonName: person.Name,
		}, steps.SegmentStagesOptions{Report: report}); err != nil {
			return err
		}
		if _, err := steps.LinkSources(ctx, steps.LinkSourcesDeps{
			DB:      deps.DB,
			Log:     deps.Log,
			LLM:     deps.LLM,
			Sources: deps.Repos.Source,
			Stages:  deps.Repos.Stage,
			Links:   deps.Repos.StageSourceLink,
		}, steps.LinkSourcesInput{
			PersonID:   person.ID,
			PersonName: person.Name,
		}, steps.LinkSourcesOptions{Report: report}); err != nil {
			return err
		}
		_, err := steps.DeepResearch(ctx, steps.DeepResearchDeps{
			DB:          deps.DB,
			Log:         deps.Log,
			LLM:         deps.LLM,
			Search:      deps.Search,
			Pages:       deps.Pages,
			Transcripts: deps.Transcripts,
			Sources:     deps.Repos.Source,
			Stages:      deps.Repos.Stage,
			Links:       deps.Repos.StageSourceLink,
		}, steps.DeepResearchInput{
			PersonID:   person.ID,
			PersonName: person.Name,
		}, steps.DeepResearchOptions{Report: report})
		return err

	case types.PhaseEmbed:
		_, err := steps.ChunkAndEmbed(ctx, steps.ChunkAndEmbedDeps{
			DB:      deps.DB,
			Log:     deps.Log,
			LLM:     deps.LLM,
			Sources: deps.Repos.Source,
			Stages:  deps.Repos.Stage,
			Links:   deps.Repos.StageSourceLink,
			Chunks:  deps.Repos.Chunk,
		}, steps.ChunkAndEmbedInput{PersonID: person.ID}, steps.ChunkAndEmbedOptions{Report: report})
		return err

	case types.PhasePublish:
		_, err := steps.PublishTimeline(ctx, steps.PublishTimelineDeps{
			DB:      deps.DB,
			Log:     deps.Log,
			Sources: deps.Repos.Source,
			Stages:  deps.Repos.Stage,
			Links:   deps.Repos.StageSourceLink,
			Cards:   deps.Repos.TimelineCard,
		}, steps.PublishTimelineInput{PersonID: person.ID}, steps.PublishTimelineOptions{Report: report})
		return err
	}
	return fmt.Errorf("ingest: unknown phase %q", phase)
}

// MarkReady flips the person to ready after the final phase.
func MarkReady(ctx context.Context, deps Deps, personID uuid.UUID) error {
	return deps.Repos.Person.UpdateStatus(dbctx.Context{Ctx: ctx}, personID, types.PersonStatusReady)
}

// MarkFailed records the failure on both the person and the running job. It
// uses a detached context so cancellation cannot block the bookkeeping writes.
func MarkFailed(ctx context.Context, deps Deps, personID uuid.UUID, phase string, cause error) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	dbc := dbctx.Context{Ctx: cleanupCtx}

	if err := deps.Repos.Person.UpdateStatus(dbc, personID, types.PersonStatusFailed); err != nil {
		deps.Log.Error("Failed to mark person failed", "person_id", personID.String(), "error", err.Error())
	}
	done := time.Now().UTC()
	if _, err := deps.Repos.IngestJob.UpsertByPhase(dbc, personID, phase, map[string]interface{}{
		"status":      types.JobStatusFailed,
		"error":       cause.Error(),
		"finished_at": &done,
	}); err != nil {
		deps.Log.Error("Failed to mark job failed", "person_id", personID.String(), "phase", phase, "error", err.Error())
	}
}
