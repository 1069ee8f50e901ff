package dbosruntime

import (
	"context"
	"fmt"
)

// WorkflowStatusInfo represents the recorded status of a compose job
type WorkflowStatusInfo struct {
	WorkflowUUID string `json:"workflow_uuid"`
	Status       string `json:"status"`
	Name         string `json:"name"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// GetWorkflowStatus retrieves the status of a workflow from the DBOS status
// table
func (r *Runtime) GetWorkflowStatus(ctx context.Context, workflowUUID string) (*WorkflowStatusInfo, error) {
	query := `
		SELECT workflow_uuid, status, name, created_at, updated_at
		FROM dbos.workflow_status
		WHERE workflow_uuid = $1
	`

	var info WorkflowStatusInfo
	err := r.db.QueryRowContext(ctx, query, workflowUUID).Scan(
		&info.WorkflowUUID,
		&info.Status,
		&info.Name,
		&info.CreatedAt,
		&info.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow status: %w", err)
	}

	return &info, nil
}
