package core

import (
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/compute/internal/hypervisor"
)

// Services bundles every core service for handler and worker wiring.
type Services struct {
	Pricing   *PricingService
	Credits   *CreditService
	Usage     *UsageService
	Admission *AdmissionService
	Billing   *BillingService
	Tenants   *TenantService
	Instances *InstanceService
	APIKeys   *APIKeyService
}

func NewServices(db DB, tc temporalclient.Client, source hypervisor.ResourceSource, logger zerolog.Logger) *Services {
	pricing := NewPricingService(db)
	credits := NewCreditService(db)
	usage := NewUsageService(db, pricing)
	admission := NewAdmissionService(source, pricing, credits)

	return &Services{
		Pricing:   pricing,
		Credits:   credits,
		Usage:     usage,
		Admission: admission,
		Billing:   NewBillingService(db, usage, credits, logger),
		Tenants:   NewTenantService(db),
		Instances: NewInstanceService(db, tc, admission),
		APIKeys:   NewAPIKeyService(db),
	}
}
