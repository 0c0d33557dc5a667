package activity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edvin/compute/internal/model"
)

// DB defines the database operations used by activity structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CoreDB contains activities that read from and update the core database.
type CoreDB struct {
	db DB
}

// NewCoreDB creates a new CoreDB activity struct.
func NewCoreDB(db DB) *CoreDB {
	return &CoreDB{db: db}
}

// UpdateInstanceStatusParams holds the parameters for UpdateInstanceStatus.
type UpdateInstanceStatusParams struct {
	ID     string
	Status string
}

// UpdateInstanceStatus sets the status of an instance row.
func (a *CoreDB) UpdateInstanceStatus(ctx context.Context, params UpdateInstanceStatusParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE instances SET status = $1, updated_at = now() WHERE id = $2`,
		params.Status, params.ID)
	return err
}

// GetInstanceByID retrieves an instance by its ID.
func (a *CoreDB) GetInstanceByID(ctx context.Context, id string) (*model.Instance, error) {
	var i model.Instance
	err := a.db.QueryRow(ctx,
		`SELECT id, tenant_id, vmid, node, template_vmid, type, name, cores, memory_mb, disk_gb,
		        billing_mode, status, config_warning, clone_task, created_at, updated_at
		 FROM instances WHERE id = $1`, id,
	).Scan(&i.ID, &i.TenantID, &i.VMID, &i.Node, &i.TemplateVMID, &i.Type, &i.Name, &i.Cores,
		&i.MemoryMB, &i.DiskGB, &i.BillingMode, &i.Status, &i.ConfigWarning, &i.CloneTask,
		&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get instance by id: %w", err)
	}
	return &i, nil
}

// MarkInstanceProvisionedParams holds the parameters for MarkInstanceProvisioned.
type MarkInstanceProvisionedParams struct {
	ID            string
	VMID          int
	CloneTask     string
	ConfigWarning bool
}

// MarkInstanceProvisioned records the hypervisor identity of a freshly
// provisioned instance and flips it to active.
func (a *CoreDB) MarkInstanceProvisioned(ctx context.Context, params MarkInstanceProvisionedParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE instances
		 SET vmid = $1, clone_task = $2, config_warning = $3, status = $4, updated_at = now()
		 WHERE id = $5`,
		params.VMID, params.CloneTask, params.ConfigWarning, model.StatusActive, params.ID)
	return err
}

// MarkInstanceDeleted finalizes instance teardown.
func (a *CoreDB) MarkInstanceDeleted(ctx context.Context, id string) error {
	_, err := a.db.Exec(ctx,
		`UPDATE instances SET status = $1, updated_at = now() WHERE id = $2`,
		model.StatusDeleted, id)
	return err
}
