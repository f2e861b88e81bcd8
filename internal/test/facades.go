package test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/ledger"
)

// WithdrawalFacadeStub provides controllable behaviour for account holder endpoints.
type WithdrawalFacadeStub struct {
	BalanceFn     func(context.Context, model.Principal) (*model.AccountSummary, error)
	SubmitFn      func(context.Context, model.Principal, string, decimal.Decimal, string) (*model.Transaction, error)
	WithdrawalsFn func(context.Context, model.Principal) (*model.Statement, error)
	PendingFn     func(context.Context, model.Principal) (*model.Statement, error)
}

// Balance returns configured summary or default figures.
func (s WithdrawalFacadeStub) Balance(ctx context.Context, p model.Principal) (*model.AccountSummary, error) {
	if s.BalanceFn != nil {
		return s.BalanceFn(ctx, p)
	}
	return &model.AccountSummary{AccountID: p.AccountID, Currency: "USD", Balance: 1000, Reserved: 250, Available: 750}, nil
}

// Submit executes configured submit handler or echoes a pending withdrawal.
func (s WithdrawalFacadeStub) Submit(ctx context.Context, p model.Principal, code string, amount decimal.Decimal, destination string) (*model.Transaction, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, p, code, amount, destination)
	}
	return &model.Transaction{ID: "tx-1", Amount: amount.Shift(2).IntPart(), Destination: destination, Status: model.TransactionStatusPending, CreatedAt: time.Unix(0, 0).UTC()}, nil
}

// Withdrawals returns preconfigured history.
func (s WithdrawalFacadeStub) Withdrawals(ctx context.Context, p model.Principal) (*model.Statement, error) {
	if s.WithdrawalsFn != nil {
		return s.WithdrawalsFn(ctx, p)
	}
	return &model.Statement{AccountID: p.AccountID, Currency: "USD", Transactions: []model.Transaction{
		{ID: "tx-1", Amount: 250, Destination: "IBAN-1", Status: model.TransactionStatusPending, CreatedAt: time.Unix(0, 0).UTC()},
	}}, nil
}

// PendingWithdrawals returns preconfigured pending list.
func (s WithdrawalFacadeStub) PendingWithdrawals(ctx context.Context, p model.Principal) (*model.Statement, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, p)
	}
	return s.Withdrawals(ctx, p)
}

// ReviewFacadeStub simulates reviewer operations.
type ReviewFacadeStub struct {
	AllPendingFn       func(context.Context, model.Principal) ([]model.Withdrawal, error)
	AllWithdrawalsFn   func(context.Context, model.Principal) ([]model.Withdrawal, error)
	AccountSummariesFn func(context.Context, model.Principal) ([]model.AccountSummary, error)
	ReviewFn           func(context.Context, model.Principal, string, string, model.Decision) (*model.Withdrawal, error)
	SetBalanceFn       func(context.Context, model.Principal, string, decimal.Decimal) (*model.AccountSummary, error)
}

// AllPending returns the configured reviewer queue.
func (s ReviewFacadeStub) AllPending(ctx context.Context, p model.Principal) ([]model.Withdrawal, error) {
	if s.AllPendingFn != nil {
		return s.AllPendingFn(ctx, p)
	}
	return []model.Withdrawal{{AccountID: "acc-1", Currency: "USD", Transaction: model.Transaction{
		ID: "tx-1", Amount: 250, Destination: "IBAN-1", Status: model.TransactionStatusPending, CreatedAt: time.Unix(0, 0).UTC(),
	}}}, nil
}

// AllWithdrawals returns one pending and one approved withdrawal unless configured.
func (s ReviewFacadeStub) AllWithdrawals(ctx context.Context, p model.Principal) ([]model.Withdrawal, error) {
	if s.AllWithdrawalsFn != nil {
		return s.AllWithdrawalsFn(ctx, p)
	}
	reviewed := time.Unix(120, 0).UTC()
	return []model.Withdrawal{
		{AccountID: "acc-2", Currency: "EUR", Transaction: model.Transaction{
			ID: "tx-2", Amount: 500, Destination: "IBAN-2", Status: model.TransactionStatusApproved, CreatedAt: time.Unix(60, 0).UTC(), ReviewedAt: &reviewed,
		}},
		{AccountID: "acc-1", Currency: "USD", Transaction: model.Transaction{
			ID: "tx-1", Amount: 250, Destination: "IBAN-1", Status: model.TransactionStatusPending, CreatedAt: time.Unix(0, 0).UTC(),
		}},
	}, nil
}

// AccountSummaries returns a single account summary unless configured.
func (s ReviewFacadeStub) AccountSummaries(ctx context.Context, p model.Principal) ([]model.AccountSummary, error) {
	if s.AccountSummariesFn != nil {
		return s.AccountSummariesFn(ctx, p)
	}
	return []model.AccountSummary{{AccountID: "acc-1", Currency: "USD", Balance: 1000, Reserved: 250, Available: 750}}, nil
}

// Review returns the reviewed withdrawal with the status implied by decision.
func (s ReviewFacadeStub) Review(ctx context.Context, p model.Principal, accountID, transactionID string, decision model.Decision) (*model.Withdrawal, error) {
	if s.ReviewFn != nil {
		return s.ReviewFn(ctx, p, accountID, transactionID, decision)
	}
	status := model.TransactionStatusDeclined
	if decision == model.DecisionApprove {
		status = model.TransactionStatusApproved
	}
	reviewed := time.Unix(60, 0).UTC()
	return &model.Withdrawal{AccountID: accountID, Currency: "USD", Transaction: model.Transaction{
		ID: transactionID, Amount: 250, Destination: "IBAN-1", Status: status, CreatedAt: time.Unix(0, 0).UTC(), ReviewedAt: &reviewed,
	}}, nil
}

// SetBalance returns a summary carrying the requested balance.
func (s ReviewFacadeStub) SetBalance(ctx context.Context, p model.Principal, accountID string, balance decimal.Decimal) (*model.AccountSummary, error) {
	if s.SetBalanceFn != nil {
		return s.SetBalanceFn(ctx, p, accountID, balance)
	}
	minor := balance.Shift(2).IntPart()
	return &model.AccountSummary{AccountID: accountID, Currency: "USD", Balance: minor, Available: minor}, nil
}

// AuditFacadeStub mimics worker interactions with the cashout facade.
type AuditFacadeStub struct {
	AccountsFn func(context.Context) ([]string, error)
	AuditFn    func(context.Context, string) ([]ledger.Violation, error)

	mu      sync.Mutex
	audited []string
}

// Accounts returns configured account identifiers.
func (s *AuditFacadeStub) Accounts(ctx context.Context) ([]string, error) {
	if s.AccountsFn != nil {
		return s.AccountsFn(ctx)
	}
	return nil, nil
}

// Audit records the request and delegates to the configured handler.
func (s *AuditFacadeStub) Audit(ctx context.Context, accountID string) ([]ledger.Violation, error) {
	s.mu.Lock()
	s.audited = append(s.audited, accountID)
	s.mu.Unlock()
	if s.AuditFn != nil {
		return s.AuditFn(ctx, accountID)
	}
	return nil, nil
}

// Audited returns a copy of account ids passed to Audit.
func (s *AuditFacadeStub) Audited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.audited...)
}

// NotifierStub records payout notifications.
type NotifierStub struct {
	Err error

	mu    sync.Mutex
	calls []model.Withdrawal
}

// Notify records the withdrawal and returns the configured error.
func (s *NotifierStub) Notify(_ context.Context, withdrawal model.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, withdrawal)
	return s.Err
}

// Calls returns a copy of recorded notifications.
func (s *NotifierStub) Calls() []model.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Withdrawal(nil), s.calls...)
}
