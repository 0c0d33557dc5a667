package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/compute/internal/activity"
	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/model"
)

// configAttempts is how many times instance configuration is tried
// before the instance is activated with a config warning.
const configAttempts = 5

// configRetryDelay returns the wait before the next configuration
// attempt. The schedule widens because a clone that has not settled
// yet usually needs a few seconds, not exponential minutes.
func configRetryDelay(attempt int) time.Duration {
	delays := []time.Duration{
		3 * time.Second,
		5 * time.Second,
		8 * time.Second,
		12 * time.Second,
		15 * time.Second,
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(delays) {
		attempt = len(delays)
	}
	return delays[attempt-1]
}

// ProvisionInstanceWorkflow clones a template, configures the result and
// opens usage metering. A failed clone is fatal: the instance is marked
// failed and nothing is billed. Failed configuration is not: after the
// retry budget the instance goes active with config_warning set, because
// the underlying resource exists and is consuming capacity.
func ProvisionInstanceWorkflow(ctx workflow.Context, params core.ProvisionInstanceParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	err := workflow.ExecuteActivity(ctx, "UpdateInstanceStatus", activity.UpdateInstanceStatusParams{
		ID:     params.InstanceID,
		Status: model.StatusProvisioning,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	var instance model.Instance
	err = workflow.ExecuteActivity(ctx, "GetInstanceByID", params.InstanceID).Get(ctx, &instance)
	if err != nil {
		_ = setInstanceFailed(ctx, params.InstanceID)
		return err
	}

	var vmid int
	err = workflow.ExecuteActivity(ctx, "GetNextVMID").Get(ctx, &vmid)
	if err != nil {
		_ = setInstanceFailed(ctx, params.InstanceID)
		return err
	}

	// The clone either starts or it does not. Retrying it blindly risks
	// a second copy on the hypervisor, so it gets a single attempt.
	cloneCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	var cloneTask string
	err = workflow.ExecuteActivity(cloneCtx, "CloneInstance", activity.CloneInstanceParams{
		Node:         instance.Node,
		TemplateVMID: instance.TemplateVMID,
		NewVMID:      vmid,
		Type:         instance.Type,
		Name:         instance.Name,
	}).Get(ctx, &cloneTask)
	if err != nil {
		_ = setInstanceFailed(ctx, params.InstanceID)
		return fmt.Errorf("cloning instance %s: %w", params.InstanceID, err)
	}

	configWarning := !configureWithRetries(ctx, instance, vmid, params.Credentials)

	err = workflow.ExecuteActivity(ctx, "MarkInstanceProvisioned", activity.MarkInstanceProvisionedParams{
		ID:            params.InstanceID,
		VMID:          vmid,
		CloneTask:     cloneTask,
		ConfigWarning: configWarning,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	var record model.UsageRecord
	err = workflow.ExecuteActivity(ctx, "StartUsageTracking", core.StartTrackingParams{
		TenantID:     instance.TenantID,
		InstanceID:   instance.ID,
		Node:         instance.Node,
		InstanceType: instance.Type,
		InstanceName: instance.Name,
		BillingMode:  instance.BillingMode,
		Cores:        instance.Cores,
		MemoryMB:     instance.MemoryMB,
		DiskGB:       instance.DiskGB,
	}).Get(ctx, &record)
	if err != nil {
		return err
	}

	if instance.BillingMode == model.BillingModeReserved && record.MonthlyRate != nil {
		err = workflow.ExecuteActivity(ctx, "DebitUpfront", activity.DebitUpfrontParams{
			TenantID:    instance.TenantID,
			InstanceID:  instance.ID,
			Amount:      *record.MonthlyRate,
			Description: fmt.Sprintf("Reserved month for %s", instance.Name),
		}).Get(ctx, nil)
		if err != nil {
			// The instance is running; losing it over a race on the
			// balance would strand the hypervisor resource. Flag the
			// record so an operator reconciles the missed charge.
			workflow.GetLogger(ctx).Error("upfront debit failed",
				"instance_id", instance.ID, "error", err)
			return workflow.ExecuteActivity(ctx, "FlagUsageRecord", record.ID).Get(ctx, nil)
		}
	}

	return nil
}

// configureWithRetries reports whether configuration eventually
// succeeded within the attempt budget.
func configureWithRetries(ctx workflow.Context, instance model.Instance, vmid int, creds core.CredentialParams) bool {
	logger := workflow.GetLogger(ctx)
	configCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	params := activity.ConfigureInstanceParams{
		Node:              instance.Node,
		VMID:              vmid,
		Type:              instance.Type,
		TenantID:          instance.TenantID,
		Cores:             instance.Cores,
		MemoryMB:          instance.MemoryMB,
		CloudInitUser:     creds.CloudInitUser,
		CloudInitPassword: creds.CloudInitPassword,
		RootPassword:      creds.RootPassword,
		SSHPublicKeys:     creds.SSHPublicKeys,
	}

	for attempt := 1; attempt <= configAttempts; attempt++ {
		err := workflow.ExecuteActivity(configCtx, "ConfigureInstance", params).Get(ctx, nil)
		if err == nil {
			return true
		}
		logger.Warn("instance configuration failed",
			"instance_id", instance.ID, "attempt", attempt, "error", err)
		if attempt < configAttempts {
			_ = workflow.Sleep(ctx, configRetryDelay(attempt))
		}
	}
	return false
}

func setInstanceFailed(ctx workflow.Context, instanceID string) error {
	return workflow.ExecuteActivity(ctx, "UpdateInstanceStatus", activity.UpdateInstanceStatusParams{
		ID:     instanceID,
		Status: model.StatusFailed,
	}).Get(ctx, nil)
}
