package core

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/compute/internal/hypervisor"
	"github.com/edvin/compute/internal/model"
)

// AdmissionRequest is the resource shape a tenant wants to provision.
type AdmissionRequest struct {
	Node        string
	Cores       int
	MemoryMB    int64
	DiskGB      int64
	BillingMode string
}

// CurrentUsage is the tenant's aggregated hypervisor footprint at
// admission time. Degraded marks footprints synthesized while the
// hypervisor was unreachable.
type CurrentUsage struct {
	Instances int   `json:"instances"`
	Cores     int   `json:"cores"`
	MemoryMB  int64 `json:"memory_mb"`
	DiskGB    int64 `json:"disk_gb"`
	Degraded  bool  `json:"degraded"`
}

// AdmissionDecision reports what an approved request will cost and the
// footprint it was checked against.
type AdmissionDecision struct {
	RequiredCredits float64      `json:"required_credits"`
	Balance         float64      `json:"balance"`
	Usage           CurrentUsage `json:"usage"`
}

// AdmissionService gates provisioning on node placement, resource
// quotas and credit cover. Checks run in a fixed order so a request
// failing several gates always reports the same error: node placement,
// then instance count, then cpu, then memory, then credits. Disk is
// aggregated for reporting but not quota-gated; it is charged through
// usage metering instead.
type AdmissionService struct {
	source  hypervisor.ResourceSource
	pricing *PricingService
	credits *CreditService
}

func NewAdmissionService(source hypervisor.ResourceSource, pricing *PricingService, credits *CreditService) *AdmissionService {
	return &AdmissionService{source: source, pricing: pricing, credits: credits}
}

// Admit evaluates every gate for the request. A nil error means the
// request may proceed to provisioning.
func (s *AdmissionService) Admit(ctx context.Context, tenant *model.Tenant, req AdmissionRequest) (*AdmissionDecision, error) {
	if len(tenant.AllowedNodes) > 0 && !slices.Contains(tenant.AllowedNodes, req.Node) {
		return nil, fmt.Errorf("node %q not in tenant allow list: %w", req.Node, ErrNodeNotAllowed)
	}

	var (
		resources []hypervisor.InstanceResources
		degraded  bool
		balance   *model.CreditBalance
		tier      *model.PricingTier
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resources, degraded, err = s.source.ListTenantResources(gctx, tenant.ID)
		if err != nil {
			return fmt.Errorf("fetching tenant resources: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		balance, err = s.credits.Balance(gctx, tenant.ID)
		return err
	})
	g.Go(func() error {
		var err error
		tier, err = s.pricing.ResolveDefaultTier(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	usage := CurrentUsage{Degraded: degraded}
	for _, r := range resources {
		usage.Instances++
		usage.Cores += r.Cores
		usage.MemoryMB += r.MemoryMB
		usage.DiskGB += r.DiskGB
	}

	if tenant.MaxInstances > 0 && usage.Instances+1 > tenant.MaxInstances {
		return nil, fmt.Errorf("tenant has %d of %d instances: %w",
			usage.Instances, tenant.MaxInstances, ErrInstanceQuotaExceeded)
	}
	if tenant.MaxCPU > 0 && usage.Cores+req.Cores > tenant.MaxCPU {
		return nil, fmt.Errorf("%d cores in use plus %d requested exceeds %d: %w",
			usage.Cores, req.Cores, tenant.MaxCPU, ErrCPUQuotaExceeded)
	}
	if tenant.MaxMemoryMB > 0 && usage.MemoryMB+req.MemoryMB > tenant.MaxMemoryMB {
		return nil, fmt.Errorf("%d MB in use plus %d MB requested exceeds %d MB: %w",
			usage.MemoryMB, req.MemoryMB, tenant.MaxMemoryMB, ErrMemoryQuotaExceeded)
	}

	required := requiredCredits(tier, req)
	if balance.Balance < required {
		return nil, fmt.Errorf("balance %.4f cannot cover upfront cost %.4f: %w",
			balance.Balance, required, ErrInsufficientCredits)
	}

	return &AdmissionDecision{
		RequiredCredits: required,
		Balance:         balance.Balance,
		Usage:           usage,
	}, nil
}

// requiredCredits is the upfront cover an admission demands: the full
// month for reserved instances, the first hour for pay-as-you-go.
func requiredCredits(tier *model.PricingTier, req AdmissionRequest) float64 {
	if req.BillingMode == model.BillingModeReserved {
		return MonthlyCost(tier, req.Cores, req.MemoryMB, req.DiskGB).Total
	}
	return HourlyCost(tier, req.Cores, req.MemoryMB, req.DiskGB).Total
}
