package repository

import (
	"context"

	"github.com/polkiloo/cashout/internal/domain/model"
)

// Mutation transforms a private copy of an account. Returning an error aborts
// the update and nothing is persisted.
type Mutation func(account *model.Account) error

// LedgerStore is the sole writer of account balance and transaction status.
// Every call touching the same account is serialized by the implementation.
type LedgerStore interface {
	Create(ctx context.Context, account model.Account) error
	Get(ctx context.Context, accountID string) (*model.Account, error)
	// ApplyIfBalanceAtLeast verifies balance >= required (skipped when required is 0),
	// applies mutation and persists the result as one indivisible step.
	ApplyIfBalanceAtLeast(ctx context.Context, accountID string, required int64, mutation Mutation) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]string, error)
}
