package request

import "encoding/json"

// Credit is the payload for adding funds to a tenant's balance.
type Credit struct {
	Amount      float64         `json:"amount" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Adjust is the payload for a signed administrative correction.
type Adjust struct {
	Amount      float64         `json:"amount" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Refund is the payload for returning previously debited funds.
type Refund struct {
	Amount      float64         `json:"amount" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}
