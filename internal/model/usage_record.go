package model

import "time"

// Billing modes.
const (
	BillingModePAYG     = "payg"
	BillingModeReserved = "reserved"
)

// UsageRecord captures the billing parameters in effect for one run of an
// instance. At most one active record exists per (tenant, instance) pair;
// records are never deleted, only deactivated.
type UsageRecord struct {
	ID                    string     `json:"id" db:"id"`
	TenantID              string     `json:"tenant_id" db:"tenant_id"`
	InstanceID            string     `json:"instance_id" db:"instance_id"`
	Node                  string     `json:"node" db:"node"`
	InstanceType          string     `json:"instance_type" db:"instance_type"`
	InstanceName          string     `json:"instance_name" db:"instance_name"`
	BillingMode           string     `json:"billing_mode" db:"billing_mode"`
	Cores                 int        `json:"cores" db:"cores"`
	MemoryMB              int64      `json:"memory_mb" db:"memory_mb"`
	DiskGB                int64      `json:"disk_gb" db:"disk_gb"`
	HourlyRate            float64    `json:"hourly_rate" db:"hourly_rate"`
	MonthlyRate           *float64   `json:"monthly_rate,omitempty" db:"monthly_rate"`
	StartedAt             time.Time  `json:"started_at" db:"started_at"`
	LastBilledAt          *time.Time `json:"last_billed_at,omitempty" db:"last_billed_at"`
	StoppedAt             *time.Time `json:"stopped_at,omitempty" db:"stopped_at"`
	IsActive              bool       `json:"is_active" db:"is_active"`
	FlaggedForRemediation *time.Time `json:"flagged_for_remediation,omitempty" db:"flagged_for_remediation"`
}

// StopResult reports the outcome of stopping usage tracking. FinalCost is
// informational for pay-as-you-go records: the billing sweep is the only
// path that debits, so a final partial hour is not charged here.
type StopResult struct {
	Found     bool         `json:"found"`
	Record    *UsageRecord `json:"record,omitempty"`
	HoursUsed float64      `json:"hours_used"`
	FinalCost float64      `json:"final_cost"`
}
