package model

import "time"

// PricingTier holds per-resource hourly and monthly rates. Rates are in
// abstract credit units: per core, per GB of memory, per GB of disk.
type PricingTier struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   *string   `json:"description,omitempty" db:"description"`
	CPUHourly     float64   `json:"cpu_hourly" db:"cpu_hourly"`
	MemoryHourly  float64   `json:"memory_hourly" db:"memory_hourly"`
	DiskHourly    float64   `json:"disk_hourly" db:"disk_hourly"`
	CPUMonthly    float64   `json:"cpu_monthly" db:"cpu_monthly"`
	MemoryMonthly float64   `json:"memory_monthly" db:"memory_monthly"`
	DiskMonthly   float64   `json:"disk_monthly" db:"disk_monthly"`
	IsDefault     bool      `json:"is_default" db:"is_default"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CostBreakdown itemizes a cost by resource.
type CostBreakdown struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Disk   float64 `json:"disk"`
	Total  float64 `json:"total"`
}

// CostEstimate is the full cost projection for an instance shape.
// PAYGMonthly is the pay-as-you-go hourly total projected over a
// 30-day month; SavingsPercent compares the reserved monthly total
// against that projection.
type CostEstimate struct {
	TierID         string        `json:"tier_id"`
	TierName       string        `json:"tier_name"`
	Hourly         CostBreakdown `json:"hourly"`
	Monthly        CostBreakdown `json:"monthly"`
	PAYGMonthly    float64       `json:"payg_monthly"`
	SavingsPercent float64       `json:"savings_percent"`
}
