// Package runs implements the pipeline run domain: recording each
// execution of the intake, classify, and deploy stages, and triggering new
// runs through the workflow engine with results persisted to the inventory
// and classification domains.
package runs

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is a recorded pipeline execution. Counts are zero until the run
// completes.
type Run struct {
	ID            uuid.UUID  `json:"id"`
	Status        string     `json:"status"`
	DryRun        bool       `json:"dry_run"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	TotalFiles    int        `json:"total_files"`
	Duplicates    int        `json:"duplicates"`
	Classified    int        `json:"classified"`
	PendingReview int        `json:"pending_review"`
	Deployed      int        `json:"deployed"`
	DeployFailed  int        `json:"deploy_failed"`
	Error         *string    `json:"error,omitempty"`
}

// TriggerCommand carries the options for starting a pipeline run.
type TriggerCommand struct {
	DryRun bool `json:"dry_run"`
}
