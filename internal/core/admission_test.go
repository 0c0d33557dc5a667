package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/compute/internal/hypervisor"
	"github.com/edvin/compute/internal/model"
)

// stubSource is a fixed-footprint ResourceSource.
type stubSource struct {
	resources []hypervisor.InstanceResources
	degraded  bool
	err       error
}

func (s *stubSource) ListTenantResources(ctx context.Context, tenantID string) ([]hypervisor.InstanceResources, bool, error) {
	return s.resources, s.degraded, s.err
}

func newAdmissionService(db *mockDB, src hypervisor.ResourceSource) *AdmissionService {
	return NewAdmissionService(src, NewPricingService(db), NewCreditService(db))
}

// expectBalanceAndTier wires the two lookups every admission check makes.
func expectBalanceAndTier(db *mockDB, balance float64) {
	db.On("QueryRow", mock.Anything, sqlContains("FROM credit_balances"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*string)) = "tenant-1"
			*(dest[1].(*float64)) = balance
			*(dest[2].(*string)) = "credits"
			return nil
		}})
	db.On("QueryRow", mock.Anything, sqlContains("FROM pricing_tiers"), mock.Anything).
		Return(&mockRow{scanFunc: scanTierRow(testTier)})
}

func testAdmissionTenant() *model.Tenant {
	return &model.Tenant{
		ID:           "tenant-1",
		MaxCPU:       8,
		MaxMemoryMB:  16384,
		MaxInstances: 3,
		AllowedNodes: []string{"node1", "node2"},
	}
}

func TestAdmissionService_RejectsDisallowedNode(t *testing.T) {
	db := &mockDB{}
	svc := newAdmissionService(db, &stubSource{})

	_, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node9", Cores: 1, MemoryMB: 1024, BillingMode: model.BillingModePAYG,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotAllowed)
	// The allow list gate fires before any fetch.
	db.AssertExpectations(t)
}

func TestAdmissionService_EmptyAllowListPermitsAnyNode(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 1000)
	tenant := testAdmissionTenant()
	tenant.AllowedNodes = nil
	svc := newAdmissionService(db, &stubSource{})

	_, err := svc.Admit(context.Background(), tenant, AdmissionRequest{
		Node: "node9", Cores: 1, MemoryMB: 1024, BillingMode: model.BillingModePAYG,
	})
	require.NoError(t, err)
}

func TestAdmissionService_InstanceQuota(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 1000)
	src := &stubSource{resources: []hypervisor.InstanceResources{
		{VMID: 100, Cores: 1, MemoryMB: 1024},
		{VMID: 101, Cores: 1, MemoryMB: 1024},
		{VMID: 102, Cores: 1, MemoryMB: 1024},
	}}
	svc := newAdmissionService(db, src)

	_, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 1, MemoryMB: 1024, BillingMode: model.BillingModePAYG,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstanceQuotaExceeded)
}

func TestAdmissionService_CPUQuota(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 1000)
	src := &stubSource{resources: []hypervisor.InstanceResources{
		{VMID: 100, Cores: 6, MemoryMB: 1024},
	}}
	svc := newAdmissionService(db, src)

	_, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 4, MemoryMB: 1024, BillingMode: model.BillingModePAYG,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCPUQuotaExceeded)
}

func TestAdmissionService_MemoryQuota(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 1000)
	src := &stubSource{resources: []hypervisor.InstanceResources{
		{VMID: 100, Cores: 1, MemoryMB: 12288},
	}}
	svc := newAdmissionService(db, src)

	_, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 1, MemoryMB: 8192, BillingMode: model.BillingModePAYG,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemoryQuotaExceeded)
}

func TestAdmissionService_ZeroQuotaMeansUnlimited(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 1000)
	src := &stubSource{resources: []hypervisor.InstanceResources{
		{VMID: 100, Cores: 64, MemoryMB: 262144},
	}}
	svc := newAdmissionService(db, src)

	_, err := svc.Admit(context.Background(), &model.Tenant{ID: "tenant-1"}, AdmissionRequest{
		Node: "node1", Cores: 32, MemoryMB: 65536, BillingMode: model.BillingModePAYG,
	})
	require.NoError(t, err)
}

func TestAdmissionService_DiskIsNotQuotaGated(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 1000)
	src := &stubSource{resources: []hypervisor.InstanceResources{
		{VMID: 100, Cores: 1, MemoryMB: 1024, DiskGB: 5000},
	}}
	svc := newAdmissionService(db, src)

	tenant := testAdmissionTenant()
	tenant.MaxDiskGB = 100
	decision, err := svc.Admit(context.Background(), tenant, AdmissionRequest{
		Node: "node1", Cores: 1, MemoryMB: 1024, DiskGB: 500, BillingMode: model.BillingModePAYG,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), decision.Usage.DiskGB)
}

func TestAdmissionService_InsufficientCredits(t *testing.T) {
	db := &mockDB{}
	// A tenant that was never credited reads as zero balance.
	db.On("QueryRow", mock.Anything, sqlContains("FROM credit_balances"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
	db.On("QueryRow", mock.Anything, sqlContains("FROM pricing_tiers"), mock.Anything).
		Return(&mockRow{scanFunc: scanTierRow(testTier)})
	svc := newAdmissionService(db, &stubSource{})

	_, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 1, MemoryMB: 1024, BillingMode: model.BillingModePAYG,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestAdmissionService_ReservedRequiresMonthlyCover(t *testing.T) {
	db := &mockDB{}
	// Covers the first pay-as-you-go hour but not a reserved month.
	expectBalanceAndTier(db, 1.0)
	svc := newAdmissionService(db, &stubSource{})

	_, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 2, MemoryMB: 4096, DiskGB: 10, BillingMode: model.BillingModeReserved,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	_, err = svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 2, MemoryMB: 4096, DiskGB: 10, BillingMode: model.BillingModePAYG,
	})
	require.NoError(t, err)
}

func TestAdmissionService_SuccessReportsDecision(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 500)
	src := &stubSource{resources: []hypervisor.InstanceResources{
		{VMID: 100, Cores: 2, MemoryMB: 2048, DiskGB: 20},
	}}
	svc := newAdmissionService(db, src)

	decision, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 2, MemoryMB: 2048, DiskGB: 50, BillingMode: model.BillingModeReserved,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, decision.Usage.Instances)
	assert.Equal(t, 2, decision.Usage.Cores)
	assert.Equal(t, int64(2048), decision.Usage.MemoryMB)
	assert.Equal(t, 500.0, decision.Balance)
	assert.InDelta(t, 20.0, decision.RequiredCredits, 1e-9)
	assert.False(t, decision.Usage.Degraded)
}

func TestAdmissionService_DegradedFootprintIsReported(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 500)
	src := &stubSource{degraded: true, resources: []hypervisor.InstanceResources{
		{VMID: 9001, Cores: 1, MemoryMB: 1024},
	}}
	svc := newAdmissionService(db, src)

	decision, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 1, MemoryMB: 1024, BillingMode: model.BillingModePAYG,
	})
	require.NoError(t, err)
	assert.True(t, decision.Usage.Degraded)
}

func TestAdmissionService_SourceFailureAborts(t *testing.T) {
	db := &mockDB{}
	expectBalanceAndTier(db, 500)
	src := &stubSource{err: errors.New("hypervisor unreachable")}
	svc := newAdmissionService(db, src)

	_, err := svc.Admit(context.Background(), testAdmissionTenant(), AdmissionRequest{
		Node: "node1", Cores: 1, MemoryMB: 1024, BillingMode: model.BillingModePAYG,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching tenant resources")
}
