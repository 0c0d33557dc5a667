package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/compute/internal/model"
	"github.com/edvin/compute/internal/platform"
)

// CredentialParams carries guest credentials through provisioning. They
// are passed to the hypervisor during configuration and never stored.
type CredentialParams struct {
	CloudInitUser     string   `json:"cloud_init_user,omitempty"`
	CloudInitPassword string   `json:"cloud_init_password,omitempty"`
	RootPassword      string   `json:"root_password,omitempty"`
	SSHPublicKeys     []string `json:"ssh_public_keys,omitempty"`
}

// CreateInstanceParams describes the instance to provision.
type CreateInstanceParams struct {
	Node         string
	TemplateVMID int
	Type         string
	Name         string
	Cores        int
	MemoryMB     int64
	DiskGB       int64
	BillingMode  string
	Credentials  CredentialParams
}

// ProvisionInstanceParams is the workflow argument for instance
// provisioning. The instance row holds everything else.
type ProvisionInstanceParams struct {
	InstanceID  string           `json:"instance_id"`
	Credentials CredentialParams `json:"credentials"`
}

// InstanceService owns the instance lifecycle. Admission is checked
// synchronously; the hypervisor work itself runs in a per-tenant
// workflow, so Create and Delete return as soon as the row is written
// and the task queued.
type InstanceService struct {
	db        DB
	tc        temporalclient.Client
	admission *AdmissionService
}

func NewInstanceService(db DB, tc temporalclient.Client, admission *AdmissionService) *InstanceService {
	return &InstanceService{db: db, tc: tc, admission: admission}
}

// Create admits the request, records the instance as pending and queues
// the provisioning workflow. Admission failures surface directly; a
// rejected request leaves no trace.
func (s *InstanceService) Create(ctx context.Context, tenant *model.Tenant, params CreateInstanceParams) (*model.Instance, *AdmissionDecision, error) {
	decision, err := s.admission.Admit(ctx, tenant, AdmissionRequest{
		Node:        params.Node,
		Cores:       params.Cores,
		MemoryMB:    params.MemoryMB,
		DiskGB:      params.DiskGB,
		BillingMode: params.BillingMode,
	})
	if err != nil {
		return nil, nil, err
	}

	name := params.Name
	if name == "" {
		name = platform.NewName("inst-")
	}

	now := time.Now().UTC()
	instance := &model.Instance{
		ID:           platform.NewID(),
		TenantID:     tenant.ID,
		Node:         params.Node,
		TemplateVMID: params.TemplateVMID,
		Type:         params.Type,
		Name:         name,
		Cores:        params.Cores,
		MemoryMB:     params.MemoryMB,
		DiskGB:       params.DiskGB,
		BillingMode:  params.BillingMode,
		Status:       model.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO instances (id, tenant_id, vmid, node, template_vmid, type, name, cores,
		                       memory_mb, disk_gb, billing_mode, status, config_warning,
		                       created_at, updated_at)
		VALUES ($1, $2, 0, $3, $4, $5, $6, $7, $8, $9, $10, $11, false, $12, $12)`,
		instance.ID, instance.TenantID, instance.Node, instance.TemplateVMID, instance.Type,
		instance.Name, instance.Cores, instance.MemoryMB, instance.DiskGB, instance.BillingMode,
		instance.Status, now)
	if err != nil {
		return nil, nil, fmt.Errorf("creating instance: %w", err)
	}

	err = signalProvision(ctx, s.tc, tenant.ID, model.ProvisionTask{
		WorkflowName: "ProvisionInstanceWorkflow",
		WorkflowID:   fmt.Sprintf("provision-instance-%s", instance.ID),
		Arg: ProvisionInstanceParams{
			InstanceID:  instance.ID,
			Credentials: params.Credentials,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("queueing provisioning: %w", err)
	}

	return instance, decision, nil
}

func (s *InstanceService) Get(ctx context.Context, tenantID, id string) (*model.Instance, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, tenant_id, vmid, node, template_vmid, type, name, cores, memory_mb, disk_gb,
		       billing_mode, status, config_warning, clone_task, created_at, updated_at
		FROM instances WHERE id = $1 AND tenant_id = $2`, id, tenantID)

	instance, err := scanInstance(row)
	if err != nil {
		return nil, fmt.Errorf("getting instance: %w", err)
	}
	return instance, nil
}

func (s *InstanceService) List(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Instance, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, vmid, node, template_vmid, type, name, cores, memory_mb, disk_gb,
		       billing_mode, status, config_warning, clone_task, created_at, updated_at
		FROM instances
		WHERE tenant_id = $1 AND status != $2 AND ($3 = '' OR id > $3)
		ORDER BY created_at DESC
		LIMIT $4`,
		tenantID, model.StatusDeleted, cursor, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("listing instances: %w", err)
	}
	defer rows.Close()

	var instances []model.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scanning instance: %w", err)
		}
		instances = append(instances, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(instances) > limit
	if hasMore {
		instances = instances[:limit]
	}
	return instances, hasMore, nil
}

// Delete marks the instance as deleting and queues teardown. The
// workflow stops usage tracking, removes the hypervisor resource and
// marks the row deleted.
func (s *InstanceService) Delete(ctx context.Context, tenantID, id string) error {
	instance, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if instance.Status == model.StatusDeleting || instance.Status == model.StatusDeleted {
		return nil
	}

	_, err = s.db.Exec(ctx, `
		UPDATE instances SET status = $1, updated_at = $2 WHERE id = $3`,
		model.StatusDeleting, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("marking instance for deletion: %w", err)
	}

	err = signalProvision(ctx, s.tc, tenantID, model.ProvisionTask{
		WorkflowName: "DeleteInstanceWorkflow",
		WorkflowID:   fmt.Sprintf("delete-instance-%s", id),
		Arg:          id,
	})
	if err != nil {
		return fmt.Errorf("queueing deletion: %w", err)
	}
	return nil
}

func scanInstance(row pgx.Row) (*model.Instance, error) {
	var i model.Instance
	err := row.Scan(&i.ID, &i.TenantID, &i.VMID, &i.Node, &i.TemplateVMID, &i.Type, &i.Name,
		&i.Cores, &i.MemoryMB, &i.DiskGB, &i.BillingMode, &i.Status, &i.ConfigWarning,
		&i.CloneTask, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
