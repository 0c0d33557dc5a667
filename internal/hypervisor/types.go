package hypervisor

// TaskRef is an asynchronous task handle returned by the hypervisor
// control API. It identifies a task in flight, not a completed one.
type TaskRef string

// CloneParams describes a full clone of a template into a new VMID.
type CloneParams struct {
	Node         string `json:"node"`
	TemplateVMID int    `json:"template_vmid"`
	NewVMID      int    `json:"new_vmid"`
	Name         string `json:"name"`
	Full         bool   `json:"full"`
}

// ConfigParams is the final configuration applied to a freshly cloned
// instance. Credential fields are type-specific: cloud-init user and
// password apply to VMs; root password and SSH public keys to containers.
type ConfigParams struct {
	Node     string `json:"node"`
	VMID     int    `json:"vmid"`
	Type     string `json:"type"`
	Cores    int    `json:"cores"`
	MemoryMB int64  `json:"memory_mb"`
	Tags     string `json:"tags,omitempty"`

	CloudInitUser     string `json:"ciuser,omitempty"`
	CloudInitPassword string `json:"cipassword,omitempty"`
	RootPassword      string `json:"root_password,omitempty"`
	SSHPublicKeys     string `json:"ssh_public_keys,omitempty"`
}

// InstanceResources is one instance's resource footprint as reported by
// the hypervisor cluster resource listing.
type InstanceResources struct {
	VMID     int    `json:"vmid"`
	Name     string `json:"name"`
	Node     string `json:"node"`
	Type     string `json:"type"`
	Cores    int    `json:"cores"`
	MemoryMB int64  `json:"memory_mb"`
	DiskGB   int64  `json:"disk_gb"`
	Template bool   `json:"template"`
}

// ConnectionStatus is the result of a connectivity pre-flight check.
type ConnectionStatus struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	NodeCount int    `json:"node_count,omitempty"`
}
