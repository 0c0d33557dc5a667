package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/compute/internal/model"
	"github.com/edvin/compute/internal/platform"
)

type TenantService struct {
	db DB
}

func NewTenantService(db DB) *TenantService {
	return &TenantService{db: db}
}

func (s *TenantService) Create(ctx context.Context, tenant *model.Tenant) error {
	tenant.ID = platform.NewID()
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	tenant.Status = model.StatusActive

	_, err := s.db.Exec(ctx, `
		INSERT INTO tenants (id, name, max_cpu, max_memory_mb, max_instances, max_disk_gb,
		                     allowed_nodes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tenant.ID, tenant.Name, tenant.MaxCPU, tenant.MaxMemoryMB, tenant.MaxInstances,
		tenant.MaxDiskGB, tenant.AllowedNodes, tenant.Status, tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}
	return nil
}

func (s *TenantService) Get(ctx context.Context, id string) (*model.Tenant, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, max_cpu, max_memory_mb, max_instances, max_disk_gb,
		       allowed_nodes, status, created_at, updated_at
		FROM tenants WHERE id = $1 AND status != $2`, id, model.StatusDeleted)

	tenant, err := scanTenant(row)
	if err != nil {
		return nil, fmt.Errorf("getting tenant: %w", err)
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context, limit int, cursor string) ([]model.Tenant, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, max_cpu, max_memory_mb, max_instances, max_disk_gb,
		       allowed_nodes, status, created_at, updated_at
		FROM tenants
		WHERE status != $1 AND ($2 = '' OR id > $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		model.StatusDeleted, cursor, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scanning tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(tenants) > limit
	if hasMore {
		tenants = tenants[:limit]
	}
	return tenants, hasMore, nil
}

// UpdateQuotas replaces a tenant's quota fields and node allow list.
// Running instances are unaffected; new quotas apply from the next
// admission check.
func (s *TenantService) UpdateQuotas(ctx context.Context, tenant *model.Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE tenants
		SET name = $1, max_cpu = $2, max_memory_mb = $3, max_instances = $4,
		    max_disk_gb = $5, allowed_nodes = $6, updated_at = $7
		WHERE id = $8 AND status != $9`,
		tenant.Name, tenant.MaxCPU, tenant.MaxMemoryMB, tenant.MaxInstances,
		tenant.MaxDiskGB, tenant.AllowedNodes, tenant.UpdatedAt, tenant.ID, model.StatusDeleted)
	if err != nil {
		return fmt.Errorf("updating tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete soft-deletes a tenant. Ledger history and usage records are
// retained for audit.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE tenants SET status = $1, updated_at = $2 WHERE id = $3 AND status != $1`,
		model.StatusDeleted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTenant(row pgx.Row) (*model.Tenant, error) {
	var t model.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.MaxCPU, &t.MaxMemoryMB, &t.MaxInstances, &t.MaxDiskGB,
		&t.AllowedNodes, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
