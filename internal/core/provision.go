package core

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/compute/internal/model"
)

const taskQueue = "compute-tasks"

// skipWorkflowKey is a context key that suppresses workflow execution.
// Used by tests and seed tooling that create rows without a worker running.
type skipWorkflowKey struct{}

// WithSkipWorkflow returns a context that causes signalProvision to be a no-op.
func WithSkipWorkflow(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipWorkflowKey{}, true)
}

// signalProvision routes a workflow task through the per-tenant entity
// workflow. SignalWithStartWorkflow guarantees sequential execution of
// all workflows for one tenant, so two operations on the same instance
// can never interleave.
func signalProvision(ctx context.Context, tc temporalclient.Client, tenantID string, task model.ProvisionTask) error {
	if v, _ := ctx.Value(skipWorkflowKey{}).(bool); v {
		return nil
	}

	wfID := fmt.Sprintf("tenant-%s", tenantID)
	_, err := tc.SignalWithStartWorkflow(ctx, wfID, model.ProvisionSignalName, task,
		temporalclient.StartWorkflowOptions{
			ID:        wfID,
			TaskQueue: taskQueue,
		},
		"TenantProvisionWorkflow",
	)
	return err
}
