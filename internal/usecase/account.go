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

// AccountUseCase opens accounts and exposes their balance figures.
type AccountUseCase struct {
	ledger repository.LedgerStore
	now    func() time.Time
}

// NewAccountUseCase constructs AccountUseCase.
func NewAccountUseCase(store repository.LedgerStore) *AccountUseCase {
	return &AccountUseCase{ledger: store, now: time.Now}
}

// Open creates an empty account in the given currency. A blank id gets a fresh UUID.
func (u *AccountUseCase) Open(ctx context.Context, accountID, currency string) (*model.Account, error) {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	if accountID == "" {
		accountID = uuid.NewString()
	}

	account := model.Account{
		ID:        accountID,
		Currency:  code,
		CreatedAt: u.now().UTC(),
	}
	if err := u.ledger.Create(ctx, account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Summary returns balance, reserved and available amounts for the account.
func (u *AccountUseCase) Summary(ctx context.Context, accountID string) (*model.AccountSummary, error) {
	account, err := u.ledger.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary := account.Summary()
	return &summary, nil
}

// SetBalance overrides the balance. The new value must still cover every pending withdrawal.
func (u *AccountUseCase) SetBalance(ctx context.Context, accountID string, balance int64) (*model.AccountSummary, error) {
	if balance < 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	account, err := u.ledger.ApplyIfBalanceAtLeast(ctx, accountID, 0, func(account *model.Account) error {
		if balance < account.Reserved() {
			return domainErrors.ErrInsufficientFunds
		}
		account.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	summary := account.Summary()
	return &summary, nil
}

// Audit reports invariant violations found on the stored account.
func (u *AccountUseCase) Audit(ctx context.Context, accountID string) ([]ledger.Violation, error) {
	account, err := u.ledger.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return ledger.Audit(account), nil
}

// Accounts lists identifiers of every stored account.
func (u *AccountUseCase) Accounts(ctx context.Context) ([]string, error) {
	return u.ledger.ListAccounts(ctx)
}

// List summarizes every stored account, ordered by account id.
func (u *AccountUseCase) List(ctx context.Context) ([]model.AccountSummary, error) {
	ids, err := u.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.AccountSummary, 0, len(ids))
	for _, id := range ids {
		account, err := u.ledger.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		summaries = append(summaries, account.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].AccountID < summaries[j].AccountID })
	return summaries, nil
}
