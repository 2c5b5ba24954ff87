package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/Lllllllleong/routinesharing/internal/routines"
)

// WorkflowNotifier hands every completed upload to a Cloud Workflow. The
// client lives as long as the function instance.
type WorkflowNotifier struct {
	client *executions.Client
	parent string
}

func NewWorkflowNotifier(ctx context.Context, projectID, location, workflowID string) (*WorkflowNotifier, error) {
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowNotifier{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

func (n *WorkflowNotifier) SessionSubmitted(ctx context.Context, result routines.BatchResult) error {
	ids := make([]string, 0, len(result.Written))
	for _, w := range result.Written {
		ids = append(ids, w.DocumentID)
	}
	payloadBytes, err := json.Marshal(map[string]interface{}{
		"uploadId":      result.UploadID,
		"documentCount": result.Total,
		"documentIds":   ids,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: n.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := n.client.CreateExecution(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	slog.Info("Workflow execution created.", "uploadId", result.UploadID, "execution", exec.GetName())
	return nil
}
