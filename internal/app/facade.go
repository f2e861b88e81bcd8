package app

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/ledger"
	pkgAuth "github.com/polkiloo/cashout/internal/pkg/auth"
	"github.com/polkiloo/cashout/internal/pkg/money"
	"github.com/polkiloo/cashout/internal/usecase"
)

// PayoutNotifier receives withdrawals once a reviewer finalized them.
type PayoutNotifier interface {
	Notify(ctx context.Context, withdrawal model.Withdrawal) error
}

// CashoutFacade binds authenticated callers to the withdrawal workflow.
type CashoutFacade struct {
	auth        *usecase.AuthUseCase
	accounts    *usecase.AccountUseCase
	withdrawals *usecase.WithdrawalUseCase
	gate        *pkgAuth.CodeGate
	notifier    PayoutNotifier
	logger      *slog.Logger
}

func NewCashoutFacade(
	auth *usecase.AuthUseCase,
	accounts *usecase.AccountUseCase,
	withdrawals *usecase.WithdrawalUseCase,
	gate *pkgAuth.CodeGate,
	notifier PayoutNotifier,
	logger *slog.Logger,
) *CashoutFacade {
	return &CashoutFacade{
		auth:        auth,
		accounts:    accounts,
		withdrawals: withdrawals,
		gate:        gate,
		notifier:    notifier,
		logger:      logger,
	}
}

func (f *CashoutFacade) Register(ctx context.Context, login, password, currency string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password, currency)
	return token, err
}

func (f *CashoutFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *CashoutFacade) ParseToken(token string) (model.Principal, error) {
	return f.auth.ParseToken(token)
}

// EnsureReviewer seeds the reviewer account used by the admin endpoints.
func (f *CashoutFacade) EnsureReviewer(ctx context.Context, login, password string) error {
	_, err := f.auth.EnsureReviewer(ctx, login, password)
	return err
}

func (f *CashoutFacade) Balance(ctx context.Context, p model.Principal) (*model.AccountSummary, error) {
	if err := requireHolder(p); err != nil {
		return nil, err
	}
	return f.accounts.Summary(ctx, p.AccountID)
}

// Submit converts the major-unit amount with the account currency and files a
// pending withdrawal. A configured withdraw code must match.
func (f *CashoutFacade) Submit(ctx context.Context, p model.Principal, code string, amount decimal.Decimal, destination string) (*model.Transaction, error) {
	if err := requireHolder(p); err != nil {
		return nil, err
	}
	if !f.gate.Allow(code) {
		return nil, domainErrors.ErrForbidden
	}
	summary, err := f.accounts.Summary(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	minor, err := money.ToMinor(amount, summary.Currency)
	if err != nil {
		return nil, err
	}
	tx, err := f.withdrawals.Submit(ctx, p.AccountID, minor, destination)
	if err != nil {
		return nil, err
	}
	f.logger.Info("withdrawal submitted",
		slog.String("account", p.AccountID),
		slog.String("transaction", tx.ID),
		slog.Int64("amount", tx.Amount))
	return tx, nil
}

func (f *CashoutFacade) Withdrawals(ctx context.Context, p model.Principal) (*model.Statement, error) {
	return f.statement(ctx, p, f.withdrawals.History)
}

func (f *CashoutFacade) PendingWithdrawals(ctx context.Context, p model.Principal) (*model.Statement, error) {
	return f.statement(ctx, p, f.withdrawals.ListPending)
}

func (f *CashoutFacade) statement(ctx context.Context, p model.Principal, list func(context.Context, string) ([]model.Transaction, error)) (*model.Statement, error) {
	if err := requireHolder(p); err != nil {
		return nil, err
	}
	summary, err := f.accounts.Summary(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	txs, err := list(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	return &model.Statement{AccountID: p.AccountID, Currency: summary.Currency, Transactions: txs}, nil
}

func (f *CashoutFacade) AllPending(ctx context.Context, p model.Principal) ([]model.Withdrawal, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	return f.withdrawals.ListAllPending(ctx)
}

// AllWithdrawals lists withdrawals of every status across accounts.
func (f *CashoutFacade) AllWithdrawals(ctx context.Context, p model.Principal) ([]model.Withdrawal, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	return f.withdrawals.ListAll(ctx)
}

// AccountSummaries lists balance figures of every account.
func (f *CashoutFacade) AccountSummaries(ctx context.Context, p model.Principal) ([]model.AccountSummary, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	return f.accounts.List(ctx)
}

// Review applies the reviewer decision and hands the finalized withdrawal to
// the payout notifier. Notification failures do not undo the review.
func (f *CashoutFacade) Review(ctx context.Context, p model.Principal, accountID, transactionID string, decision model.Decision) (*model.Withdrawal, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	tx, err := f.withdrawals.Review(ctx, accountID, transactionID, decision)
	if err != nil {
		return nil, err
	}
	f.logger.Info("withdrawal reviewed",
		slog.String("account", accountID),
		slog.String("transaction", tx.ID),
		slog.String("status", string(tx.Status)))

	withdrawal := &model.Withdrawal{AccountID: accountID, Transaction: *tx}
	summary, err := f.accounts.Summary(ctx, accountID)
	if err != nil {
		f.logger.Warn("payout notification skipped",
			slog.String("account", accountID),
			slog.String("transaction", tx.ID),
			slog.String("error", err.Error()))
		return withdrawal, nil
	}
	withdrawal.Currency = summary.Currency

	if err := f.notifier.Notify(ctx, *withdrawal); err != nil {
		f.logger.Error("payout notification failed",
			slog.String("account", accountID),
			slog.String("transaction", tx.ID),
			slog.String("error", err.Error()))
	}
	return withdrawal, nil
}

// SetBalance overrides the stored balance of an account.
func (f *CashoutFacade) SetBalance(ctx context.Context, p model.Principal, accountID string, balance decimal.Decimal) (*model.AccountSummary, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	current, err := f.accounts.Summary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	minor, err := money.ToMinor(balance, current.Currency)
	if err != nil {
		return nil, err
	}
	summary, err := f.accounts.SetBalance(ctx, accountID, minor)
	if err != nil {
		return nil, err
	}
	f.logger.Info("balance overridden",
		slog.String("account", accountID),
		slog.Int64("balance", summary.Balance))
	return summary, nil
}

func (f *CashoutFacade) Accounts(ctx context.Context) ([]string, error) {
	return f.accounts.Accounts(ctx)
}

func (f *CashoutFacade) Audit(ctx context.Context, accountID string) ([]ledger.Violation, error) {
	return f.accounts.Audit(ctx, accountID)
}

func requireHolder(p model.Principal) error {
	if p.AccountID == "" {
		return domainErrors.ErrForbidden
	}
	return nil
}

func requireReviewer(p model.Principal) error {
	if !p.Reviewer {
		return domainErrors.ErrForbidden
	}
	return nil
}
