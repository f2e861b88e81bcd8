package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawRequest describes withdrawal request payload.
type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"destination"`
	Code        string          `json:"code,omitempty"`
}

// SubmitResponse acknowledges an accepted withdrawal.
type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// WithdrawalResponse describes withdrawal history entry.
type WithdrawalResponse struct {
	ID          string     `json:"id"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Destination string     `json:"destination"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

// AccountWithdrawalResponse is a withdrawal tagged with its owning account.
type AccountWithdrawalResponse struct {
	Account string `json:"account"`
	WithdrawalResponse
}
