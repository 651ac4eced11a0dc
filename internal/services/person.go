package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/jobs/ingest"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/temporalx"
	"github.com/yungbote/lifeline-backend/internal/temporalx/ingestrun"
)

// deleteBatchSize bounds each delete statement during cascade removal.
const deleteBatchSize = 200

type CreatePersonResult struct {
	Person   *types.Person `json:"person"`
	Existing bool          `json:"existing"`
}

type PersonDetail struct {
	Person *types.Person      `json:"person"`
	Jobs   []*types.IngestJob `json:"jobs"`
}

// StageView is a stage plus its published cards, the shape the timeline
// endpoint returns.
type StageView struct {
	Stage *types.Stage          `json:"stage"`
	Cards []*types.TimelineCard `json:"cards"`
}

// LinkedSource pairs a source with its link metadata for one stage.
type LinkedSource struct {
	Source    *types.Source `json:"source"`
	Relevance float64       `json:"relevance"`
	Rationale string        `json:"rationale"`
}

type PersonService interface {
	CreatePerson(ctx context.Context, name string, seedURLs []string) (*CreatePersonResult, error)
	ReingestPerson(ctx context.Context, personID uuid.UUID, fromPhase string) error
	DeletePerson(ctx context.Context, personID uuid.UUID) error
	GetPerson(ctx context.Context, personID uuid.UUID) (*PersonDetail, error)
	ListPeople(ctx context.Context) ([]*types.Person, error)
	GetTimeline(ctx context.Context, personID uuid.UUID) ([]StageView, error)
	GetStageSources(ctx context.Context, stageID uuid.UUID) ([]LinkedSource, error)
}

type personService struct {
	db   *gorm.DB
	log  *logger.Logger
	tc   temporalsdkclient.Client
	deps ingest.Deps
}

func NewPersonService(db *gorm.DB, log *logger.Logger, tc temporalsdkclient.Client, deps ingest.Deps) PersonService {
	return &personService{
		db:   db,
		log:  log.With("service", "PersonService"),
		tc:   tc,
		deps: deps,
	}
}

// CreatePerson creates the person and schedules ingestion. Name matching is
// case-insensitive: asking for someone who already exists returns the
// existing record untouched rather than re-running the pipeline.
func (ps *personService) CreatePerson(ctx context.Context, name string, seedURLs []string) (*CreatePersonResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("person name is required")
	}

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := ps.deps.Repos.Person.GetByName(dbc, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &CreatePersonResult{Person: existing, Existing: true}, nil
	}

	row := &types.Person{Name: name, Status: types.PersonStatusPending}
	if len(seedURLs) > 0 {
		raw, err := json.Marshal(seedURLs)
		if err != nil {
			return nil, err
		}
		row.SeedURLs = datatypes.JSON(raw)
	}
	person, err := ps.deps.Repos.Person.Create(dbc, row)
	if err != nil {
		return nil, err
	}

	// A queued discover job makes the pipeline visible to pollers before the
	// scheduler picks the run up.
	if _, err := ps.deps.Repos.IngestJob.UpsertByPhase(dbc, person.ID, types.PhaseDiscover, map[string]interface{}{
		"status":   types.JobStatusQueued,
		"progress": 0,
	}); err != nil {
		return nil, err
	}

	if err := ps.scheduleIngestion(ctx, person.ID, ""); err != nil {
		ps.log.Error("Failed to schedule ingestion", "person_id", person.ID.String(), "error", err.Error())
		return nil, err
	}
	return &CreatePersonResult{Person: person, Existing: false}, nil
}

// ReingestPerson restarts the pipeline at fromPhase (empty means from the
// beginning), reusing everything persisted by the phases before it.
func (ps *personService) ReingestPerson(ctx context.Context, personID uuid.UUID, fromPhase string) error {
	if len(ingest.PhasesFrom(fromPhase)) == 0 {
		return fmt.Errorf("unknown phase %q", fromPhase)
	}

	dbc := dbctx.Context{Ctx: ctx}
	person, err := ps.deps.Repos.Person.GetByID(dbc, personID)
	if err != nil {
		return err
	}
	if person == nil {
		return fmt.Errorf("person not found")
	}
	return ps.scheduleIngestion(ctx, personID, fromPhase)
}

func (ps *personService) scheduleIngestion(ctx context.Context, personID uuid.UUID, fromPhase string) error {
	if ps.tc != nil {
		cfg := temporalx.LoadConfig()
		_, err := ps.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
			ID:        ingestrun.WorkflowID(personID.String()),
			TaskQueue: cfg.TaskQueue,
		}, ingestrun.WorkflowName, ingestrun.WorkflowInput{
			PersonID:  personID.String(),
			FromPhase: fromPhase,
		})
		if err != nil {
			return fmt.Errorf("start ingest workflow: %w", err)
		}
		return nil
	}

	// No Temporal: run the pipeline in-process. The Redis lease inside Run
	// keeps concurrent requests for the same person from racing.
	go func() {
		runCtx := context.WithoutCancel(ctx)
		if err := ingest.Run(runCtx, ps.deps, ingest.Input{PersonID: personID, FromPhase: fromPhase}); err != nil {
			ps.log.Error("Inline ingestion failed", "person_id", personID.String(), "error", err.Error())
		}
	}()
	return nil
}

// DeletePerson removes the person and every row derived from them, children
// first so foreign keys never dangle mid-delete.
func (ps *personService) DeletePerson(ctx context.Context, personID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	person, err := ps.deps.Repos.Person.GetByID(dbc, personID)
	if err != nil {
		return err
	}
	if person == nil {
		return fmt.Errorf("person not found")
	}

	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		r := ps.deps.Repos

		sessions, err := r.ChatSession.ListByPerson(inner, personID)
		if err != nil {
			return err
		}
		sessionIDs := make([]uuid.UUID, 0, len(sessions))
		for _, s := range sessions {
			sessionIDs = append(sessionIDs, s.ID)
		}
		if err := r.ChatMessage.DeleteBySessionIDs(inner, sessionIDs, deleteBatchSize); err != nil {
			return err
		}
		if err := r.ChatSession.DeleteByPerson(inner, personID, deleteBatchSize); err != nil {
			return err
		}

		stages, err := r.Stage.ListByPerson(inner, personID)
		if err != nil {
			return err
		}
		stageIDs := make([]uuid.UUID, 0, len(stages))
		for _, s := range stages {
			stageIDs = append(stageIDs, s.ID)
		}
		if err := r.TimelineCard.DeleteByStageIDs(inner, stageIDs, deleteBatchSize); err != nil {
			return err
		}
		if err := r.StageSourceLink.DeleteByStageIDs(inner, stageIDs, deleteBatchSize); err != nil {
			return err
		}
		if err := r.Chunk.DeleteByPerson(inner, personID, deleteBatchSize); err != nil {
			return err
		}
		if err := r.Stage.DeleteByPerson(inner, personID, deleteBatchSize); err != nil {
			return err
		}
		if err := r.Source.DeleteByPerson(inner, personID, deleteBatchSize); err != nil {
			return err
		}
		if err := r.IngestJob.DeleteByPerson(inner, personID, deleteBatchSize); err != nil {
			return err
		}
		return r.Person.DeleteByID(inner, personID)
	})
}

func (ps *personService) GetPerson(ctx context.Context, personID uuid.UUID) (*PersonDetail, error) {
	dbc := dbctx.Context{Ctx: ctx}
	person, err := ps.deps.Repos.Person.GetByID(dbc, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person not found")
	}
	jobs, err := ps.deps.Repos.IngestJob.ListByPerson(dbc, personID)
	if err != nil {
		return nil, err
	}
	return &PersonDetail{Person: person, Jobs: jobs}, nil
}

func (ps *personService) ListPeople(ctx context.Context) ([]*types.Person, error) {
	return ps.deps.Repos.Person.List(dbctx.Context{Ctx: ctx})
}

func (ps *personService) GetTimeline(ctx context.Context, personID uuid.UUID) ([]StageView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	stages, err := ps.deps.Repos.Stage.ListByPerson(dbc, personID)
	if err != nil {
		return nil, err
	}
	stageIDs := make([]uuid.UUID, 0, len(stages))
	for _, s := range stages {
		stageIDs = append(stageIDs, s.ID)
	}
	cards, err := ps.deps.Repos.TimelineCard.ListByStageIDs(dbc, stageIDs)
	if err != nil {
		return nil, err
	}
	cardsByStage := make(map[uuid.UUID][]*types.TimelineCard, len(stages))
	for _, c := range cards {
		cardsByStage[c.StageID] = append(cardsByStage[c.StageID], c)
	}

	views := make([]StageView, 0, len(stages))
	for _, s := range stages {
		views = append(views, StageView{Stage: s, Cards: cardsByStage[s.ID]})
	}
	return views, nil
}

func (ps *personService) GetStageSources(ctx context.Context, stageID uuid.UUID) ([]LinkedSource, error) {
	dbc := dbctx.Context{Ctx: ctx}
	stage, err := ps.deps.Repos.Stage.GetByID(dbc, stageID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, fmt.Errorf("stage not found")
	}

	links, err := ps.deps.Repos.StageSourceLink.ListByStage(dbc, stageID)
	if err != nil {
		return nil, err
	}
	sourceIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		sourceIDs = append(sourceIDs, l.SourceID)
	}
	sources, err := ps.deps.Repos.Source.GetByIDs(dbc, sourceIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Source, len(sources))
	for _, s := range sources {
		byID[s.ID] = s
	}

	out := make([]LinkedSource, 0, len(links))
	for _, l := range links {
		src := byID[l.SourceID]
		if src == nil {
			continue
		}
		out = append(out, LinkedSource{Source: src, Relevance: l.Relevance, Rationale: l.Rationale})
	}
	return out, nil
}
