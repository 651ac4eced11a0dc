package people

import (
	"time"

	"github.com/google/uuid"
)

// Ingestion phases in execution order.
const (
	PhaseDiscover = "discover"
	PhaseExtract  = "extract"
	PhaseStage    = "stage"
	PhaseEmbed    = "embed"
	PhasePublish  = "publish"
)

// Phases returns the canonical phase order.
func Phases() []string {
	return []string{PhaseDiscover, PhaseExtract, PhaseStage, PhaseEmbed, PhasePublish}
}

const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// IngestJob is the sole external progress surface for a pipeline run.
// At most one row exists per (person, phase); reruns patch the existing row.
type IngestJob struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_ingest_job_person_phase,unique" json:"person_id"`
	Phase      string     `gorm:"column:phase;not null;index:idx_ingest_job_person_phase,unique" json:"phase"`
	Status     string     `gorm:"column:status;not null;index" json:"status"`
	Progress   int        `gorm:"column:progress;not null;default:0" json:"progress"`
	Message    string     `gorm:"column:message" json:"message,omitempty"`
	Error      string     `gorm:"column:error" json:"error,omitempty"`
	StartedAt  *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (IngestJob) TableName() string { return "ingest_job" }
