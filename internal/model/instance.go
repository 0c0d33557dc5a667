package model

import "time"

// Instance types.
const (
	InstanceTypeVM        = "vm"
	InstanceTypeContainer = "container"
)

// Instance is the control-plane record of a compute instance. VMID is the
// hypervisor-side numeric identifier; ID is the platform identifier.
type Instance struct {
	ID            string    `json:"id" db:"id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	VMID          int       `json:"vmid" db:"vmid"`
	Node          string    `json:"node" db:"node"`
	TemplateVMID  int       `json:"template_vmid" db:"template_vmid"`
	Type          string    `json:"type" db:"type"`
	Name          string    `json:"name" db:"name"`
	Cores         int       `json:"cores" db:"cores"`
	MemoryMB      int64     `json:"memory_mb" db:"memory_mb"`
	DiskGB        int64     `json:"disk_gb" db:"disk_gb"`
	BillingMode   string    `json:"billing_mode" db:"billing_mode"`
	Status        string    `json:"status" db:"status"`
	ConfigWarning bool      `json:"config_warning" db:"config_warning"`
	CloneTask     *string   `json:"clone_task,omitempty" db:"clone_task"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
