package model

import "time"

// Tenant is a billing account with resource quotas. A zero quota field
// means unlimited; an empty AllowedNodes list means any node is allowed.
type Tenant struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	MaxCPU       int       `json:"max_cpu" db:"max_cpu"`
	MaxMemoryMB  int64     `json:"max_memory_mb" db:"max_memory_mb"`
	MaxInstances int       `json:"max_instances" db:"max_instances"`
	MaxDiskGB    int64     `json:"max_disk_gb" db:"max_disk_gb"`
	AllowedNodes []string  `json:"allowed_nodes" db:"allowed_nodes"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
