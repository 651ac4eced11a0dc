package ingestrun

const (
	WorkflowName      = "person_ingest"
	ActivityRunPhase  = "person_ingest_run_phase"
	ActivityMarkReady = "person_ingest_mark_ready"
	ActivityMarkFail  = "person_ingest_mark_failed"
)

// WorkflowInput names the person and, for re-ingestion, the phase to resume
// from. IDs travel as strings so the payloads stay stable across SDK codecs.
type WorkflowInput struct {
	PersonID  string `json:"person_id"`
	FromPhase string `json:"from_phase,omitempty"`
}

type PhaseInput struct {
	PersonID string `json:"person_id"`
	Phase    string `json:"phase"`
}

type FailInput struct {
	PersonID string `json:"person_id"`
	Phase    string `json:"phase"`
	Error    string `json:"error"`
}

// WorkflowID returns the deterministic workflow id for a person. One running
// ingestion per person is enforced by workflow id uniqueness.
func WorkflowID(personID string) string {
	return "ingest-" + personID
}
