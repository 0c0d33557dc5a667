package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/compute/internal/model"
	"github.com/edvin/compute/internal/platform"
)

// CreditService is the prepaid credit ledger. Balances only change
// through Credit, Debit and Adjust, and every change appends a
// transaction row recording the balance after the change. The balance
// write and its journal row commit together, so a balance can never
// change without a matching transaction.
//
// Debit enforces the non-negative balance invariant inside a single
// conditional UPDATE, so concurrent debits against the same tenant
// serialize on the balance row and can never overdraw it.
type CreditService struct {
	db DB
}

func NewCreditService(db DB) *CreditService {
	return &CreditService{db: db}
}

// Credit adds funds to a tenant's balance, creating the balance row on
// first use.
func (s *CreditService) Credit(ctx context.Context, tenantID string, amount float64, description string, metadata json.RawMessage) (*model.CreditBalance, *model.Transaction, error) {
	return s.credit(ctx, tenantID, model.TransactionCredit, amount, description, metadata)
}

// Refund returns previously debited funds. Ledger-wise it behaves like a
// credit but is recorded under its own type for audit.
func (s *CreditService) Refund(ctx context.Context, tenantID string, amount float64, description string, metadata json.RawMessage) (*model.CreditBalance, *model.Transaction, error) {
	return s.credit(ctx, tenantID, model.TransactionRefund, amount, description, metadata)
}

func (s *CreditService) credit(ctx context.Context, tenantID, txType string, amount float64, description string, metadata json.RawMessage) (*model.CreditBalance, *model.Transaction, error) {
	if amount <= 0 {
		return nil, nil, fmt.Errorf("crediting %.4f: %w", amount, ErrInvalidAmount)
	}

	dbtx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning credit: %w", err)
	}
	defer dbtx.Rollback(ctx)

	now := time.Now().UTC()
	var balance float64
	err = dbtx.QueryRow(ctx, `
		INSERT INTO credit_balances (tenant_id, balance, currency, updated_at)
		VALUES ($1, $2, 'credits', $3)
		ON CONFLICT (tenant_id) DO UPDATE
		SET balance = credit_balances.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING balance`,
		tenantID, amount, now).Scan(&balance)
	if err != nil {
		return nil, nil, fmt.Errorf("applying credit: %w", err)
	}

	entry, err := s.appendTransaction(ctx, dbtx, tenantID, txType, amount, balance, description, metadata, now)
	if err != nil {
		return nil, nil, err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing credit: %w", err)
	}

	return &model.CreditBalance{TenantID: tenantID, Balance: balance, Currency: "credits", UpdatedAt: now}, entry, nil
}

// Debit withdraws funds from a tenant's balance. The balance check and
// the withdrawal are one statement, so the balance can never go
// negative regardless of concurrent debits. ErrNoBalance is returned
// when the tenant has never been credited, ErrInsufficientCredits when
// the balance exists but cannot cover the amount.
func (s *CreditService) Debit(ctx context.Context, tenantID string, amount float64, description string, metadata json.RawMessage) (*model.CreditBalance, *model.Transaction, error) {
	if amount <= 0 {
		return nil, nil, fmt.Errorf("debiting %.4f: %w", amount, ErrInvalidAmount)
	}

	dbtx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning debit: %w", err)
	}
	defer dbtx.Rollback(ctx)

	balance, entry, err := s.DebitTx(ctx, dbtx, tenantID, amount, description, metadata)
	if err != nil {
		return nil, nil, err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing debit: %w", err)
	}
	return balance, entry, nil
}

// DebitTx runs the debit on the caller's transaction, so callers can
// make other writes stand or fall with the charge. The caller owns
// commit and rollback.
func (s *CreditService) DebitTx(ctx context.Context, q Queryer, tenantID string, amount float64, description string, metadata json.RawMessage) (*model.CreditBalance, *model.Transaction, error) {
	if amount <= 0 {
		return nil, nil, fmt.Errorf("debiting %.4f: %w", amount, ErrInvalidAmount)
	}

	now := time.Now().UTC()
	var balance float64
	err := q.QueryRow(ctx, `
		UPDATE credit_balances
		SET balance = balance - $1, updated_at = $2
		WHERE tenant_id = $3 AND balance >= $1
		RETURNING balance`,
		amount, now, tenantID).Scan(&balance)
	if err == nil {
		entry, err := s.appendTransaction(ctx, q, tenantID, model.TransactionDebit, -amount, balance, description, metadata, now)
		if err != nil {
			return nil, nil, err
		}
		return &model.CreditBalance{TenantID: tenantID, Balance: balance, Currency: "credits", UpdatedAt: now}, entry, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("applying debit: %w", err)
	}

	// The guarded update matched nothing: distinguish a missing balance
	// row from one that cannot cover the amount.
	var current float64
	err = q.QueryRow(ctx, `SELECT balance FROM credit_balances WHERE tenant_id = $1`, tenantID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNoBalance
	}
	if err != nil {
		return nil, nil, fmt.Errorf("checking balance: %w", err)
	}
	return nil, nil, fmt.Errorf("balance %.4f cannot cover %.4f: %w", current, amount, ErrInsufficientCredits)
}

// Adjust applies a signed administrative correction. Unlike Debit it may
// drive the balance negative, which is intentional for reconciliation.
func (s *CreditService) Adjust(ctx context.Context, tenantID string, amount float64, description string, metadata json.RawMessage) (*model.CreditBalance, *model.Transaction, error) {
	if amount == 0 {
		return nil, nil, fmt.Errorf("adjustment of zero: %w", ErrInvalidAmount)
	}

	dbtx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning adjustment: %w", err)
	}
	defer dbtx.Rollback(ctx)

	now := time.Now().UTC()
	var balance float64
	err = dbtx.QueryRow(ctx, `
		INSERT INTO credit_balances (tenant_id, balance, currency, updated_at)
		VALUES ($1, $2, 'credits', $3)
		ON CONFLICT (tenant_id) DO UPDATE
		SET balance = credit_balances.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING balance`,
		tenantID, amount, now).Scan(&balance)
	if err != nil {
		return nil, nil, fmt.Errorf("applying adjustment: %w", err)
	}

	entry, err := s.appendTransaction(ctx, dbtx, tenantID, model.TransactionAdjustment, amount, balance, description, metadata, now)
	if err != nil {
		return nil, nil, err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing adjustment: %w", err)
	}

	return &model.CreditBalance{TenantID: tenantID, Balance: balance, Currency: "credits", UpdatedAt: now}, entry, nil
}

func (s *CreditService) appendTransaction(ctx context.Context, q Queryer, tenantID, txType string, amount, balanceAfter float64, description string, metadata json.RawMessage, now time.Time) (*model.Transaction, error) {
	tx := &model.Transaction{
		ID:           platform.NewID(),
		TenantID:     tenantID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  description,
		Metadata:     metadata,
		CreatedAt:    now,
	}

	_, err := q.Exec(ctx, `
		INSERT INTO transactions (id, tenant_id, type, amount, balance_after, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.TenantID, tx.Type, tx.Amount, tx.BalanceAfter, tx.Description, tx.Metadata, tx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}
	return tx, nil
}

// Balance reports the tenant's current balance. A tenant that has never
// been credited reads as zero; no row is created on read.
func (s *CreditService) Balance(ctx context.Context, tenantID string) (*model.CreditBalance, error) {
	var b model.CreditBalance
	err := s.db.QueryRow(ctx, `
		SELECT tenant_id, balance, currency, updated_at
		FROM credit_balances WHERE tenant_id = $1`, tenantID).
		Scan(&b.TenantID, &b.Balance, &b.Currency, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.CreditBalance{TenantID: tenantID, Balance: 0, Currency: "credits"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting balance: %w", err)
	}
	return &b, nil
}

// HasSufficientCredits is an advisory pre-check. The balance may change
// between this check and a later Debit; only Debit itself is atomic.
func (s *CreditService) HasSufficientCredits(ctx context.Context, tenantID string, amount float64) (bool, error) {
	b, err := s.Balance(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return b.Balance >= amount, nil
}

// Transactions lists a tenant's ledger entries most recent first, using
// cursor pagination.
func (s *CreditService) Transactions(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Transaction, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, tenant_id, type, amount, balance_after, description, metadata, created_at
		FROM transactions
		WHERE tenant_id = $1 AND ($2 = '' OR id > $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		tenantID, cursor, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Type, &t.Amount, &t.BalanceAfter, &t.Description, &t.Metadata, &t.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scanning transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(txs) > limit
	if hasMore {
		txs = txs[:limit]
	}
	return txs, hasMore, nil
}
