package hypervisor

import (
	"context"

	"github.com/rs/zerolog"
)

// ResourceSource supplies a tenant's current resource footprint for
// admission checks. The boolean result reports whether the data is
// degraded (synthesized because the hypervisor was unreachable).
type ResourceSource interface {
	ListTenantResources(ctx context.Context, tenantID string) ([]InstanceResources, bool, error)
}

// RealSource queries the hypervisor and propagates failures. This is the
// production source: an unreachable hypervisor fails the request loudly
// instead of answering with data that could mask an outage.
type RealSource struct {
	provider *Provider
}

func NewRealSource(provider *Provider) *RealSource {
	return &RealSource{provider: provider}
}

func (s *RealSource) ListTenantResources(ctx context.Context, tenantID string) ([]InstanceResources, bool, error) {
	resources, err := s.provider.Client().ListTenantResources(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}
	return resources, false, nil
}

// DegradedSource queries the hypervisor and falls back to fixed demo data
// when it is unreachable. For demo and disconnected operation only; the
// degraded flag is set on fallback so callers can surface it.
type DegradedSource struct {
	provider *Provider
	logger   zerolog.Logger
}

func NewDegradedSource(provider *Provider, logger zerolog.Logger) *DegradedSource {
	return &DegradedSource{provider: provider, logger: logger}
}

func (s *DegradedSource) ListTenantResources(ctx context.Context, tenantID string) ([]InstanceResources, bool, error) {
	resources, err := s.provider.Client().ListTenantResources(ctx, tenantID)
	if err == nil {
		return resources, false, nil
	}

	s.logger.Warn().
		Err(err).
		Str("tenant_id", tenantID).
		Msg("hypervisor unreachable, returning demo resource data")

	return demoResources(), true, nil
}

// demoResources is the fixed footprint reported in degraded mode: one
// small VM, enough to exercise quota arithmetic without a hypervisor.
func demoResources() []InstanceResources {
	return []InstanceResources{
		{
			VMID:     9001,
			Name:     "demo-vm",
			Node:     "demo-node",
			Type:     "vm",
			Cores:    1,
			MemoryMB: 1024,
			DiskGB:   10,
		},
	}
}
