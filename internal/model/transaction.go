package model

import (
	"encoding/json"
	"time"
)

// Transaction types.
const (
	TransactionCredit     = "credit"
	TransactionDebit      = "debit"
	TransactionRefund     = "refund"
	TransactionAdjustment = "adjustment"
)

// Transaction is one append-only entry in a tenant's credit ledger.
// Amount is signed (negative for debits) and BalanceAfter equals the
// tenant's balance immediately after this transaction was applied.
type Transaction struct {
	ID           string          `json:"id" db:"id"`
	TenantID     string          `json:"tenant_id" db:"tenant_id"`
	Type         string          `json:"type" db:"type"`
	Amount       float64         `json:"amount" db:"amount"`
	BalanceAfter float64         `json:"balance_after" db:"balance_after"`
	Description  string          `json:"description" db:"description"`
	Metadata     json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// CreditBalance is the denormalized current balance for a tenant,
// mutated only through the ledger's credit/debit operations.
type CreditBalance struct {
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Balance   float64   `json:"balance" db:"balance"`
	Currency  string    `json:"currency" db:"currency"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
