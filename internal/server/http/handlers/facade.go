package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/cashout/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password, currency string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (model.Principal, error)
}

// WithdrawalFacade encapsulates account holder operations exposed via HTTP.
type WithdrawalFacade interface {
	Balance(ctx context.Context, p model.Principal) (*model.AccountSummary, error)
	Submit(ctx context.Context, p model.Principal, code string, amount decimal.Decimal, destination string) (*model.Transaction, error)
	Withdrawals(ctx context.Context, p model.Principal) (*model.Statement, error)
	PendingWithdrawals(ctx context.Context, p model.Principal) (*model.Statement, error)
}

// ReviewFacade provides reviewer operations.
type ReviewFacade interface {
	AllPending(ctx context.Context, p model.Principal) ([]model.Withdrawal, error)
	AllWithdrawals(ctx context.Context, p model.Principal) ([]model.Withdrawal, error)
	AccountSummaries(ctx context.Context, p model.Principal) ([]model.AccountSummary, error)
	Review(ctx context.Context, p model.Principal, accountID, transactionID string, decision model.Decision) (*model.Withdrawal, error)
	SetBalance(ctx context.Context, p model.Principal, accountID string, balance decimal.Decimal) (*model.AccountSummary, error)
}

// CashoutFacade aggregates the full set of operations used across handlers.
type CashoutFacade interface {
	AuthFacade
	WithdrawalFacade
	ReviewFacade
}
