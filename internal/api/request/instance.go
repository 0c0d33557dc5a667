package request

// CreateInstance is the payload for provisioning an instance.
type CreateInstance struct {
	Node         string `json:"node" validate:"required"`
	TemplateVMID int    `json:"template_vmid" validate:"required,gt=0"`
	Type         string `json:"type" validate:"required,oneof=vm container"`
	Name         string `json:"name" validate:"omitempty,slug"`
	Cores        int    `json:"cores" validate:"required,gt=0"`
	MemoryMB     int64  `json:"memory_mb" validate:"required,gt=0"`
	DiskGB       int64  `json:"disk_gb" validate:"gte=0"`
	BillingMode  string `json:"billing_mode" validate:"required,oneof=payg reserved"`

	CloudInitUser     string   `json:"cloud_init_user,omitempty"`
	CloudInitPassword string   `json:"cloud_init_password,omitempty"`
	RootPassword      string   `json:"root_password,omitempty"`
	SSHPublicKeys     []string `json:"ssh_public_keys,omitempty"`
}
