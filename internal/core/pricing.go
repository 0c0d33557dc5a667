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

// hoursPerMonth projects hourly rates over a nominal 30-day month.
const hoursPerMonth = 720

// Built-in rates used when no pricing tier has been configured yet, so
// cost estimation and billing never fail on an empty installation.
const (
	fallbackTierName      = "standard"
	fallbackCPUHourly     = 0.01
	fallbackMemoryHourly  = 0.005
	fallbackDiskHourly    = 0.0002
	fallbackCPUMonthly    = 5.0
	fallbackMemoryMonthly = 2.5
	fallbackDiskMonthly   = 0.10
)

type PricingService struct {
	db DB
}

func NewPricingService(db DB) *PricingService {
	return &PricingService{db: db}
}

// ResolveDefaultTier returns the tier used for rating: the active default
// tier, or the oldest active tier when none is marked default, or a
// freshly created built-in tier when no active tier exists at all.
func (s *PricingService) ResolveDefaultTier(ctx context.Context) (*model.PricingTier, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, cpu_hourly, memory_hourly, disk_hourly,
		       cpu_monthly, memory_monthly, disk_monthly, is_default, is_active,
		       created_at, updated_at
		FROM pricing_tiers
		WHERE is_active = true
		ORDER BY is_default DESC, created_at ASC
		LIMIT 1`)

	tier, err := scanTier(row)
	if err == nil {
		return tier, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("resolving default tier: %w", err)
	}

	return s.createFallbackTier(ctx)
}

func (s *PricingService) createFallbackTier(ctx context.Context) (*model.PricingTier, error) {
	now := time.Now().UTC()
	tier := &model.PricingTier{
		ID:            platform.NewID(),
		Name:          fallbackTierName,
		CPUHourly:     fallbackCPUHourly,
		MemoryHourly:  fallbackMemoryHourly,
		DiskHourly:    fallbackDiskHourly,
		CPUMonthly:    fallbackCPUMonthly,
		MemoryMonthly: fallbackMemoryMonthly,
		DiskMonthly:   fallbackDiskMonthly,
		IsDefault:     true,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO pricing_tiers (id, name, description, cpu_hourly, memory_hourly, disk_hourly,
		                           cpu_monthly, memory_monthly, disk_monthly, is_default, is_active,
		                           created_at, updated_at)
		VALUES ($1, $2, NULL, $3, $4, $5, $6, $7, $8, true, true, $9, $9)`,
		tier.ID, tier.Name, tier.CPUHourly, tier.MemoryHourly, tier.DiskHourly,
		tier.CPUMonthly, tier.MemoryMonthly, tier.DiskMonthly, now)
	if err != nil {
		return nil, fmt.Errorf("creating fallback pricing tier: %w", err)
	}

	return tier, nil
}

// HourlyCost itemizes the hourly cost of an instance shape. Memory rates
// are per GB, so MemoryMB is normalized before rating.
func HourlyCost(tier *model.PricingTier, cores int, memoryMB, diskGB int64) model.CostBreakdown {
	b := model.CostBreakdown{
		CPU:    float64(cores) * tier.CPUHourly,
		Memory: float64(memoryMB) / 1024 * tier.MemoryHourly,
		Disk:   float64(diskGB) * tier.DiskHourly,
	}
	b.Total = b.CPU + b.Memory + b.Disk
	return b
}

// MonthlyCost itemizes the reserved monthly cost of an instance shape.
func MonthlyCost(tier *model.PricingTier, cores int, memoryMB, diskGB int64) model.CostBreakdown {
	b := model.CostBreakdown{
		CPU:    float64(cores) * tier.CPUMonthly,
		Memory: float64(memoryMB) / 1024 * tier.MemoryMonthly,
		Disk:   float64(diskGB) * tier.DiskMonthly,
	}
	b.Total = b.CPU + b.Memory + b.Disk
	return b
}

// Estimate projects the cost of an instance shape under both billing
// modes using the default tier.
func (s *PricingService) Estimate(ctx context.Context, cores int, memoryMB, diskGB int64) (*model.CostEstimate, error) {
	tier, err := s.ResolveDefaultTier(ctx)
	if err != nil {
		return nil, err
	}

	hourly := HourlyCost(tier, cores, memoryMB, diskGB)
	monthly := MonthlyCost(tier, cores, memoryMB, diskGB)
	paygMonthly := hourly.Total * hoursPerMonth

	savings := 0.0
	if paygMonthly > 0 {
		savings = (paygMonthly - monthly.Total) / paygMonthly * 100
	}

	return &model.CostEstimate{
		TierID:         tier.ID,
		TierName:       tier.Name,
		Hourly:         hourly,
		Monthly:        monthly,
		PAYGMonthly:    paygMonthly,
		SavingsPercent: savings,
	}, nil
}

func (s *PricingService) Create(ctx context.Context, tier *model.PricingTier) error {
	tier.ID = platform.NewID()
	now := time.Now().UTC()
	tier.CreatedAt = now
	tier.UpdatedAt = now
	tier.IsActive = true

	if tier.IsDefault {
		if _, err := s.db.Exec(ctx, `UPDATE pricing_tiers SET is_default = false, updated_at = $1 WHERE is_default = true`, now); err != nil {
			return fmt.Errorf("clearing previous default tier: %w", err)
		}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO pricing_tiers (id, name, description, cpu_hourly, memory_hourly, disk_hourly,
		                           cpu_monthly, memory_monthly, disk_monthly, is_default, is_active,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		tier.ID, tier.Name, tier.Description, tier.CPUHourly, tier.MemoryHourly, tier.DiskHourly,
		tier.CPUMonthly, tier.MemoryMonthly, tier.DiskMonthly, tier.IsDefault, tier.IsActive,
		tier.CreatedAt, tier.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating pricing tier: %w", err)
	}
	return nil
}

func (s *PricingService) Get(ctx context.Context, id string) (*model.PricingTier, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, cpu_hourly, memory_hourly, disk_hourly,
		       cpu_monthly, memory_monthly, disk_monthly, is_default, is_active,
		       created_at, updated_at
		FROM pricing_tiers WHERE id = $1`, id)

	tier, err := scanTier(row)
	if err != nil {
		return nil, fmt.Errorf("getting pricing tier: %w", err)
	}
	return tier, nil
}

func (s *PricingService) List(ctx context.Context) ([]model.PricingTier, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, cpu_hourly, memory_hourly, disk_hourly,
		       cpu_monthly, memory_monthly, disk_monthly, is_default, is_active,
		       created_at, updated_at
		FROM pricing_tiers
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing pricing tiers: %w", err)
	}
	defer rows.Close()

	var tiers []model.PricingTier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pricing tier: %w", err)
		}
		tiers = append(tiers, *tier)
	}
	return tiers, rows.Err()
}

// Deactivate retires a tier from rating. Existing usage records keep
// the rates captured at tracking start.
func (s *PricingService) Deactivate(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE pricing_tiers SET is_active = false, is_default = false, updated_at = $1
		WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivating pricing tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTier(row pgx.Row) (*model.PricingTier, error) {
	var t model.PricingTier
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CPUHourly, &t.MemoryHourly, &t.DiskHourly,
		&t.CPUMonthly, &t.MemoryMonthly, &t.DiskMonthly, &t.IsDefault, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
