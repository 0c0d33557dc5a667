package request

// CreateTenant is the payload for creating a tenant. Zero quota values
// mean unlimited; an empty allow list permits any node.
type CreateTenant struct {
	Name         string   `json:"name" validate:"required,slug"`
	MaxCPU       int      `json:"max_cpu" validate:"gte=0"`
	MaxMemoryMB  int64    `json:"max_memory_mb" validate:"gte=0"`
	MaxInstances int      `json:"max_instances" validate:"gte=0"`
	MaxDiskGB    int64    `json:"max_disk_gb" validate:"gte=0"`
	AllowedNodes []string `json:"allowed_nodes"`
}

// UpdateTenant is the payload for updating a tenant's quotas.
type UpdateTenant struct {
	Name         string   `json:"name" validate:"required,slug"`
	MaxCPU       int      `json:"max_cpu" validate:"gte=0"`
	MaxMemoryMB  int64    `json:"max_memory_mb" validate:"gte=0"`
	MaxInstances int      `json:"max_instances" validate:"gte=0"`
	MaxDiskGB    int64    `json:"max_disk_gb" validate:"gte=0"`
	AllowedNodes []string `json:"allowed_nodes"`
}
