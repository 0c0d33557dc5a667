package request

// CreatePricingTier is the payload for defining a pricing tier. Rates
// are per core, per GB of memory and per GB of disk.
type CreatePricingTier struct {
	Name          string  `json:"name" validate:"required,slug"`
	Description   *string `json:"description,omitempty"`
	CPUHourly     float64 `json:"cpu_hourly" validate:"gte=0"`
	MemoryHourly  float64 `json:"memory_hourly" validate:"gte=0"`
	DiskHourly    float64 `json:"disk_hourly" validate:"gte=0"`
	CPUMonthly    float64 `json:"cpu_monthly" validate:"gte=0"`
	MemoryMonthly float64 `json:"memory_monthly" validate:"gte=0"`
	DiskMonthly   float64 `json:"disk_monthly" validate:"gte=0"`
	IsDefault     bool    `json:"is_default"`
}

// Estimate is the payload for a cost projection.
type Estimate struct {
	Cores    int   `json:"cores" validate:"gte=0"`
	MemoryMB int64 `json:"memory_mb" validate:"gte=0"`
	DiskGB   int64 `json:"disk_gb" validate:"gte=0"`
}
