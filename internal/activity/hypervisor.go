package activity

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/edvin/compute/internal/hypervisor"
)

// Hypervisor contains activities that talk to the hypervisor API. The
// client is resolved from the provider per call so settings changes
// apply without a worker restart.
type Hypervisor struct {
	provider *hypervisor.Provider

	// demoFallback synthesizes a VMID when the hypervisor is
	// unreachable, for demo and disconnected operation only.
	demoFallback bool
}

func NewHypervisor(provider *hypervisor.Provider, demoFallback bool) *Hypervisor {
	return &Hypervisor{provider: provider, demoFallback: demoFallback}
}

// GetNextVMID reserves the next free hypervisor-side numeric ID.
func (a *Hypervisor) GetNextVMID(ctx context.Context) (int, error) {
	id, err := a.provider.Client().NextID(ctx)
	if err != nil {
		if a.demoFallback {
			return 90000 + rand.Intn(9000), nil
		}
		return 0, fmt.Errorf("next vmid: %w", err)
	}
	return id, nil
}

// CloneInstanceParams holds the parameters for CloneInstance.
type CloneInstanceParams struct {
	Node         string
	TemplateVMID int
	NewVMID      int
	Type         string
	Name         string
}

// CloneInstance clones a template into a new instance and returns the
// hypervisor task reference.
func (a *Hypervisor) CloneInstance(ctx context.Context, params CloneInstanceParams) (string, error) {
	task, err := a.provider.Client().CloneTemplate(ctx, params.Type, hypervisor.CloneParams{
		Node:         params.Node,
		TemplateVMID: params.TemplateVMID,
		NewVMID:      params.NewVMID,
		Name:         params.Name,
		Full:         true,
	})
	if err != nil {
		return "", fmt.Errorf("clone template %d on %s: %w", params.TemplateVMID, params.Node, err)
	}
	return string(task), nil
}

// ConfigureInstanceParams holds the parameters for ConfigureInstance.
type ConfigureInstanceParams struct {
	Node              string
	VMID              int
	Type              string
	TenantID          string
	Cores             int
	MemoryMB          int64
	CloudInitUser     string
	CloudInitPassword string
	RootPassword      string
	SSHPublicKeys     []string
}

// ConfigureInstance applies sizing, tenancy tag and guest credentials to
// a cloned instance.
func (a *Hypervisor) ConfigureInstance(ctx context.Context, params ConfigureInstanceParams) error {
	err := a.provider.Client().ApplyConfig(ctx, hypervisor.ConfigParams{
		Node:              params.Node,
		VMID:              params.VMID,
		Type:              params.Type,
		Cores:             params.Cores,
		MemoryMB:          params.MemoryMB,
		Tags:              params.TenantID,
		CloudInitUser:     params.CloudInitUser,
		CloudInitPassword: params.CloudInitPassword,
		RootPassword:      params.RootPassword,
		SSHPublicKeys:     strings.Join(params.SSHPublicKeys, "\n"),
	})
	if err != nil {
		return fmt.Errorf("configure %s %d: %w", params.Type, params.VMID, err)
	}
	return nil
}

// RemoveInstanceParams holds the parameters for RemoveInstance.
type RemoveInstanceParams struct {
	Node string
	VMID int
	Type string
}

// RemoveInstance deletes the instance from the hypervisor. The deletion
// task handle is not tracked; the hypervisor finishes the removal on its
// own.
func (a *Hypervisor) RemoveInstance(ctx context.Context, params RemoveInstanceParams) error {
	_, err := a.provider.Client().DeleteInstance(ctx, params.Node, params.Type, params.VMID)
	if err != nil {
		return fmt.Errorf("remove %s %d: %w", params.Type, params.VMID, err)
	}
	return nil
}
