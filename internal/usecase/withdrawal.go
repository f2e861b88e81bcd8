package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
	"github.com/polkiloo/cashout/internal/ledger"
)

// WithdrawalUseCase drives the submit and review workflow. It keeps no state of
// its own; every check that depends on the balance runs inside the store.
type WithdrawalUseCase struct {
	ledger repository.LedgerStore
	now    func() time.Time
	newID  func() string
}

// NewWithdrawalUseCase constructs WithdrawalUseCase.
func NewWithdrawalUseCase(store repository.LedgerStore) *WithdrawalUseCase {
	return &WithdrawalUseCase{ledger: store, now: time.Now, newID: uuid.NewString}
}

// Submit reserves amount against the available balance and records a pending
// withdrawal. The balance itself is left untouched until approval.
func (u *WithdrawalUseCase) Submit(ctx context.Context, accountID string, amount int64, destination string) (*model.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := ValidateDestination(destination); err != nil {
		return nil, err
	}

	tx := model.Transaction{
		ID:          u.newID(),
		Amount:      amount,
		Destination: destination,
		Status:      model.TransactionStatusPending,
		CreatedAt:   u.now().UTC(),
	}

	account, err := u.ledger.ApplyIfBalanceAtLeast(ctx, accountID, amount, func(account *model.Account) error {
		if account.Available() < amount {
			return domainErrors.ErrInsufficientFunds
		}
		account.Transactions = append(account.Transactions, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed(account, tx.ID)
}

// Review applies the reviewer decision to a pending withdrawal. Approval debits
// the balance, decline only releases the reservation.
func (u *WithdrawalUseCase) Review(ctx context.Context, accountID, transactionID string, decision model.Decision) (*model.Transaction, error) {
	var (
		account *model.Account
		err     error
	)
	at := u.now().UTC()

	switch decision {
	case model.DecisionApprove:
		account, err = u.ledger.ApplyIfBalanceAtLeast(ctx, accountID, 0, func(account *model.Account) error {
			tx, ok := account.Transaction(transactionID)
			if !ok {
				return domainErrors.ErrNotFound
			}
			if tx.Status != model.TransactionStatusPending {
				return domainErrors.ErrAlreadyFinalized
			}
			if account.Balance < tx.Amount {
				return domainErrors.ErrInsufficientFunds
			}
			account.Balance -= tx.Amount
			_, err := ledger.Transition(account, transactionID, model.TransactionStatusPending, model.TransactionStatusApproved, at)
			return err
		})
	case model.DecisionDecline:
		account, err = ledger.UpdateTransactionStatus(ctx, u.ledger, accountID, transactionID,
			model.TransactionStatusPending, model.TransactionStatusDeclined, at)
	default:
		return nil, domainErrors.ErrInvalidDecision
	}
	if err != nil {
		return nil, err
	}
	return committed(account, transactionID)
}

// ListPending returns the account's pending withdrawals, newest first.
func (u *WithdrawalUseCase) ListPending(ctx context.Context, accountID string) ([]model.Transaction, error) {
	account, err := u.ledger.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return filterTransactions(account, model.TransactionStatusPending), nil
}

// History returns every withdrawal of the account, newest first.
func (u *WithdrawalUseCase) History(ctx context.Context, accountID string) ([]model.Transaction, error) {
	account, err := u.ledger.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return filterTransactions(account, ""), nil
}

// ListAllPending collects the reviewer queue across all accounts, newest first.
func (u *WithdrawalUseCase) ListAllPending(ctx context.Context) ([]model.Withdrawal, error) {
	return u.collect(ctx, model.TransactionStatusPending)
}

// ListAll collects withdrawals of every status across all accounts, newest first.
func (u *WithdrawalUseCase) ListAll(ctx context.Context) ([]model.Withdrawal, error) {
	return u.collect(ctx, "")
}

func (u *WithdrawalUseCase) collect(ctx context.Context, status model.TransactionStatus) ([]model.Withdrawal, error) {
	ids, err := u.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.Withdrawal
	for _, id := range ids {
		account, err := u.ledger.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		for _, tx := range filterTransactions(account, status) {
			out = append(out, model.Withdrawal{AccountID: account.ID, Currency: account.Currency, Transaction: tx})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return newerFirst(out[i].Transaction, out[j].Transaction)
	})
	return out, nil
}

func committed(account *model.Account, transactionID string) (*model.Transaction, error) {
	tx, ok := account.Transaction(transactionID)
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	out := *tx
	return &out, nil
}

// filterTransactions copies transactions with the given status; an empty status keeps all.
func filterTransactions(account *model.Account, status model.TransactionStatus) []model.Transaction {
	out := make([]model.Transaction, 0, len(account.Transactions))
	for _, tx := range account.Transactions {
		if status == "" || tx.Status == status {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i], out[j]) })
	return out
}

func newerFirst(a, b model.Transaction) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
