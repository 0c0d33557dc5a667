package core

import "errors"

// Admission errors. All user-facing and non-retryable: the request must
// change (or the balance grow) before it can succeed.
var (
	ErrNodeNotAllowed        = errors.New("node not allowed for tenant")
	ErrInstanceQuotaExceeded = errors.New("instance quota exceeded")
	ErrCPUQuotaExceeded      = errors.New("cpu quota exceeded")
	ErrMemoryQuotaExceeded   = errors.New("memory quota exceeded")
)

// Ledger errors.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrNoBalance           = errors.New("tenant has no credit balance")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// ErrCloneFailed marks a fatal provisioning failure: the clone never
// started, so no instance exists on the hypervisor.
var ErrCloneFailed = errors.New("template clone failed")
