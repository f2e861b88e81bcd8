// Package ledger holds the conditional-update rules shared by every LedgerStore
// backend and the helpers built on top of ApplyIfBalanceAtLeast.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
)

// ErrIllegalMutation is returned when a mutation rewrites immutable account state.
var ErrIllegalMutation = errors.New("illegal ledger mutation")

// Apply evaluates a conditional update against the loaded snapshot. Backends call
// it while holding exclusive access to the account and persist the returned copy.
func Apply(current *model.Account, required int64, mutation repository.Mutation) (*model.Account, error) {
	if required > 0 && current.Balance < required {
		return nil, domainErrors.ErrInsufficientFunds
	}

	next := current.Clone()
	if mutation != nil {
		if err := mutation(next); err != nil {
			return nil, err
		}
	}

	if err := verifyTransition(current, next); err != nil {
		return nil, err
	}
	if next.Balance < 0 || next.Available() < 0 {
		return nil, domainErrors.ErrInsufficientFunds
	}

	next.Version = current.Version + 1
	return next, nil
}

func verifyTransition(current, next *model.Account) error {
	if next.ID != current.ID || next.Currency != current.Currency {
		return fmt.Errorf("%w: account identity changed", ErrIllegalMutation)
	}
	if len(next.Transactions) < len(current.Transactions) {
		return fmt.Errorf("%w: transactions removed", ErrIllegalMutation)
	}
	for i, before := range current.Transactions {
		after := next.Transactions[i]
		if after.ID != before.ID || after.Amount != before.Amount || after.Destination != before.Destination || !after.CreatedAt.Equal(before.CreatedAt) {
			return fmt.Errorf("%w: transaction %s rewritten", ErrIllegalMutation, before.ID)
		}
		if before.Status.IsTerminal() && after.Status != before.Status {
			return fmt.Errorf("%w: transaction %s already %s", ErrIllegalMutation, before.ID, before.Status)
		}
		if !after.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrIllegalMutation, after.Status)
		}
	}
	for _, added := range next.Transactions[len(current.Transactions):] {
		if added.Amount <= 0 {
			return fmt.Errorf("%w: non-positive amount", ErrIllegalMutation)
		}
		if added.Status != model.TransactionStatusPending {
			return fmt.Errorf("%w: new transaction must be pending, got %q", ErrIllegalMutation, added.Status)
		}
	}
	return nil
}

// Transition moves a transaction from expected to next inside a mutation.
func Transition(account *model.Account, transactionID string, expected, next model.TransactionStatus, at time.Time) (*model.Transaction, error) {
	tx, ok := account.Transaction(transactionID)
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if tx.Status != expected {
		return nil, domainErrors.ErrAlreadyFinalized
	}
	tx.Status = next
	reviewed := at
	tx.ReviewedAt = &reviewed
	return tx, nil
}

// AppendTransaction adds a transaction without a balance precondition.
func AppendTransaction(ctx context.Context, store repository.LedgerStore, accountID string, tx model.Transaction) (*model.Account, error) {
	return store.ApplyIfBalanceAtLeast(ctx, accountID, 0, func(account *model.Account) error {
		account.Transactions = append(account.Transactions, tx)
		return nil
	})
}

// UpdateTransactionStatus performs a status-only transition serialized with all
// other operations on the account.
func UpdateTransactionStatus(ctx context.Context, store repository.LedgerStore, accountID, transactionID string, expected, next model.TransactionStatus, at time.Time) (*model.Account, error) {
	return store.ApplyIfBalanceAtLeast(ctx, accountID, 0, func(account *model.Account) error {
		_, err := Transition(account, transactionID, expected, next, at)
		return err
	})
}
