package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/compute/internal/model"
)

// BillingSweepWorkflow runs one billing sweep over all active
// pay-as-you-go usage. Scheduled hourly; the per-record billing
// watermark makes overlapping or retried runs safe, a record is never
// charged twice for the same hours.
func BillingSweepWorkflow(ctx workflow.Context) (*model.SweepResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var result model.SweepResult
	if err := workflow.ExecuteActivity(ctx, "RunBillingSweep").Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
