package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/compute/internal/model"
	"github.com/edvin/compute/internal/platform"
)

// StartTrackingParams describes the instance whose usage should be
// metered. Rates are captured from the current default tier at start
// and never change for the lifetime of the record.
type StartTrackingParams struct {
	TenantID     string
	InstanceID   string
	Node         string
	InstanceType string
	InstanceName string
	BillingMode  string
	Cores        int
	MemoryMB     int64
	DiskGB       int64
}

type UsageService struct {
	db      DB
	pricing *PricingService
}

func NewUsageService(db DB, pricing *PricingService) *UsageService {
	return &UsageService{db: db, pricing: pricing}
}

// StartTracking opens a usage record for an instance. Any previous
// active record for the same instance is deactivated first, so at most
// one active record exists per (tenant, instance) pair at all times.
func (s *UsageService) StartTracking(ctx context.Context, params StartTrackingParams) (*model.UsageRecord, error) {
	tier, err := s.pricing.ResolveDefaultTier(ctx)
	if err != nil {
		return nil, err
	}

	hourly := HourlyCost(tier, params.Cores, params.MemoryMB, params.DiskGB).Total
	var monthly *float64
	if params.BillingMode == model.BillingModeReserved {
		m := MonthlyCost(tier, params.Cores, params.MemoryMB, params.DiskGB).Total
		monthly = &m
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `
		UPDATE usage_records
		SET is_active = false, stopped_at = $1
		WHERE tenant_id = $2 AND instance_id = $3 AND is_active = true`,
		now, params.TenantID, params.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("deactivating previous usage records: %w", err)
	}

	record := &model.UsageRecord{
		ID:           platform.NewID(),
		TenantID:     params.TenantID,
		InstanceID:   params.InstanceID,
		Node:         params.Node,
		InstanceType: params.InstanceType,
		InstanceName: params.InstanceName,
		BillingMode:  params.BillingMode,
		Cores:        params.Cores,
		MemoryMB:     params.MemoryMB,
		DiskGB:       params.DiskGB,
		HourlyRate:   hourly,
		MonthlyRate:  monthly,
		StartedAt:    now,
		IsActive:     true,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO usage_records (id, tenant_id, instance_id, node, instance_type, instance_name,
		                           billing_mode, cores, memory_mb, disk_gb, hourly_rate, monthly_rate,
		                           started_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, true)`,
		record.ID, record.TenantID, record.InstanceID, record.Node, record.InstanceType,
		record.InstanceName, record.BillingMode, record.Cores, record.MemoryMB, record.DiskGB,
		record.HourlyRate, record.MonthlyRate, record.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting usage record: %w", err)
	}

	return record, nil
}

// StopTracking closes the active usage record for an instance. Stopping
// an instance with no active record is not an error: deletion flows
// retry, and the second attempt must succeed quietly. FinalCost in the
// result is informational only; no debit happens here.
func (s *UsageService) StopTracking(ctx context.Context, tenantID, instanceID string) (*model.StopResult, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, tenant_id, instance_id, node, instance_type, instance_name, billing_mode,
		       cores, memory_mb, disk_gb, hourly_rate, monthly_rate, started_at, last_billed_at,
		       stopped_at, is_active, flagged_for_remediation
		FROM usage_records
		WHERE tenant_id = $1 AND instance_id = $2 AND is_active = true`,
		tenantID, instanceID)

	record, err := scanUsageRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.StopResult{Found: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding active usage record: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `
		UPDATE usage_records SET is_active = false, stopped_at = $1 WHERE id = $2`,
		now, record.ID)
	if err != nil {
		return nil, fmt.Errorf("stopping usage record: %w", err)
	}

	hours := now.Sub(record.StartedAt).Hours()
	result := &model.StopResult{
		Found:     true,
		Record:    record,
		HoursUsed: hours,
	}
	if record.BillingMode == model.BillingModePAYG {
		result.FinalCost = hours * record.HourlyRate
	}

	record.IsActive = false
	record.StoppedAt = &now
	return result, nil
}

// ActiveUsage lists the tenant's currently metered instances.
func (s *UsageService) ActiveUsage(ctx context.Context, tenantID string) ([]model.UsageRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, instance_id, node, instance_type, instance_name, billing_mode,
		       cores, memory_mb, disk_gb, hourly_rate, monthly_rate, started_at, last_billed_at,
		       stopped_at, is_active, flagged_for_remediation
		FROM usage_records
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY started_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing active usage: %w", err)
	}
	defer rows.Close()

	return collectUsageRecords(rows)
}

// History lists all of a tenant's usage records most recent first, using
// cursor pagination.
func (s *UsageService) History(ctx context.Context, tenantID string, limit int, cursor string) ([]model.UsageRecord, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, instance_id, node, instance_type, instance_name, billing_mode,
		       cores, memory_mb, disk_gb, hourly_rate, monthly_rate, started_at, last_billed_at,
		       stopped_at, is_active, flagged_for_remediation
		FROM usage_records
		WHERE tenant_id = $1 AND ($2 = '' OR id > $2)
		ORDER BY started_at DESC
		LIMIT $3`,
		tenantID, cursor, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("listing usage history: %w", err)
	}
	defer rows.Close()

	records, err := collectUsageRecords(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	return records, hasMore, nil
}

// ActivePAYGRecords snapshots every active pay-as-you-go record across
// all tenants. The billing sweep iterates this snapshot.
func (s *UsageService) ActivePAYGRecords(ctx context.Context) ([]model.UsageRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, instance_id, node, instance_type, instance_name, billing_mode,
		       cores, memory_mb, disk_gb, hourly_rate, monthly_rate, started_at, last_billed_at,
		       stopped_at, is_active, flagged_for_remediation
		FROM usage_records
		WHERE is_active = true AND billing_mode = $1
		ORDER BY started_at ASC`, model.BillingModePAYG)
	if err != nil {
		return nil, fmt.Errorf("snapshotting active payg records: %w", err)
	}
	defer rows.Close()

	return collectUsageRecords(rows)
}

// AdvanceLastBilled moves a record's billing watermark after a
// successful charge. It runs on the caller's Queryer so the watermark
// can commit atomically with the debit that earned it.
func (s *UsageService) AdvanceLastBilled(ctx context.Context, q Queryer, recordID string, t time.Time) error {
	_, err := q.Exec(ctx, `UPDATE usage_records SET last_billed_at = $1 WHERE id = $2`, t, recordID)
	if err != nil {
		return fmt.Errorf("advancing last billed: %w", err)
	}
	return nil
}

// FlagForRemediation marks a record whose charge failed so an operator
// can reconcile it. The flag does not remove the record from future
// sweeps.
func (s *UsageService) FlagForRemediation(ctx context.Context, recordID string, t time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE usage_records SET flagged_for_remediation = $1
		WHERE id = $2 AND flagged_for_remediation IS NULL`, t, recordID)
	if err != nil {
		return fmt.Errorf("flagging usage record: %w", err)
	}
	return nil
}

func scanUsageRecord(row pgx.Row) (*model.UsageRecord, error) {
	var r model.UsageRecord
	err := row.Scan(&r.ID, &r.TenantID, &r.InstanceID, &r.Node, &r.InstanceType, &r.InstanceName,
		&r.BillingMode, &r.Cores, &r.MemoryMB, &r.DiskGB, &r.HourlyRate, &r.MonthlyRate,
		&r.StartedAt, &r.LastBilledAt, &r.StoppedAt, &r.IsActive, &r.FlaggedForRemediation)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectUsageRecords(rows pgx.Rows) ([]model.UsageRecord, error) {
	var records []model.UsageRecord
	for rows.Next() {
		r, err := scanUsageRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
