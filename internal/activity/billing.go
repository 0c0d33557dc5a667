package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/model"
)

// Billing contains activities that drive usage metering and the credit
// ledger. They are thin wrappers over the core services so workflows and
// the HTTP API share one implementation.
type Billing struct {
	usage   *core.UsageService
	credits *core.CreditService
	billing *core.BillingService
}

func NewBilling(services *core.Services) *Billing {
	return &Billing{
		usage:   services.Usage,
		credits: services.Credits,
		billing: services.Billing,
	}
}

// StartUsageTracking opens a usage record for a provisioned instance.
func (a *Billing) StartUsageTracking(ctx context.Context, params core.StartTrackingParams) (*model.UsageRecord, error) {
	return a.usage.StartTracking(ctx, params)
}

// StopUsageTrackingParams holds the parameters for StopUsageTracking.
type StopUsageTrackingParams struct {
	TenantID   string
	InstanceID string
}

// StopUsageTracking closes the active usage record, if any.
func (a *Billing) StopUsageTracking(ctx context.Context, params StopUsageTrackingParams) (*model.StopResult, error) {
	return a.usage.StopTracking(ctx, params.TenantID, params.InstanceID)
}

// DebitUpfrontParams holds the parameters for DebitUpfront.
type DebitUpfrontParams struct {
	TenantID    string
	InstanceID  string
	Amount      float64
	Description string
}

// DebitUpfront charges a reserved instance's monthly rate at provision time.
func (a *Billing) DebitUpfront(ctx context.Context, params DebitUpfrontParams) error {
	metadata, _ := json.Marshal(map[string]any{"instance_id": params.InstanceID})
	_, _, err := a.credits.Debit(ctx, params.TenantID, params.Amount, params.Description, metadata)
	return err
}

// FlagUsageRecord marks a usage record for operator remediation.
func (a *Billing) FlagUsageRecord(ctx context.Context, recordID string) error {
	return a.usage.FlagForRemediation(ctx, recordID, time.Now().UTC())
}

// RunBillingSweep charges all accrued pay-as-you-go usage.
func (a *Billing) RunBillingSweep(ctx context.Context) (*model.SweepResult, error) {
	return a.billing.RunSweep(ctx)
}
