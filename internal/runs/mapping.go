package runs

import (
	"github.com/4jp/alchemia/pkg/query"
	"github.com/4jp/alchemia/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("status", "Status").
	Project("dry_run", "DryRun").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt").
	Project("total_files", "TotalFiles").
	Project("duplicates", "Duplicates").
	Project("classified", "Classified").
	Project("pending_review", "PendingReview").
	Project("deployed", "Deployed").
	Project("deploy_failed", "DeployFailed").
	Project("error", "Error")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run

	err := s.Scan(
		&r.ID,
		&r.Status,
		&r.DryRun,
		&r.StartedAt,
		&r.CompletedAt,
		&r.TotalFiles,
		&r.Duplicates,
		&r.Classified,
		&r.PendingReview,
		&r.Deployed,
		&r.DeployFailed,
		&r.Error,
	)

	return r, err
}
