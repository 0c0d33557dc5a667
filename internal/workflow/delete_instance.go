package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/compute/internal/activity"
	"github.com/edvin/compute/internal/model"
)

// DeleteInstanceWorkflow stops usage metering, removes the hypervisor
// resource and marks the row deleted. Metering stops first so a slow or
// failing hypervisor delete does not keep the meter running.
func DeleteInstanceWorkflow(ctx workflow.Context, instanceID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var instance model.Instance
	err := workflow.ExecuteActivity(ctx, "GetInstanceByID", instanceID).Get(ctx, &instance)
	if err != nil {
		return err
	}

	var stop model.StopResult
	err = workflow.ExecuteActivity(ctx, "StopUsageTracking", activity.StopUsageTrackingParams{
		TenantID:   instance.TenantID,
		InstanceID: instance.ID,
	}).Get(ctx, &stop)
	if err != nil {
		return err
	}

	// A vmid of zero means provisioning never reached the hypervisor;
	// there is nothing to remove.
	if instance.VMID != 0 {
		removeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 2 * time.Minute,
			RetryPolicy: &temporal.RetryPolicy{
				MaximumAttempts:    5,
				InitialInterval:    5 * time.Second,
				BackoffCoefficient: 2.0,
			},
		})
		err = workflow.ExecuteActivity(removeCtx, "RemoveInstance", activity.RemoveInstanceParams{
			Node: instance.Node,
			VMID: instance.VMID,
			Type: instance.Type,
		}).Get(ctx, nil)
		if err != nil {
			_ = setInstanceFailed(ctx, instanceID)
			return err
		}
	}

	return workflow.ExecuteActivity(ctx, "MarkInstanceDeleted", instanceID).Get(ctx, nil)
}
