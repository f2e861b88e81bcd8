package model

import (
	"strings"
	"time"
)

// TransactionStatus describes withdrawal review lifecycle.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusDeclined TransactionStatus = "declined"
)

// ParseTransactionStatus normalizes case and reports whether the value is a known status.
func ParseTransactionStatus(value string) (TransactionStatus, bool) {
	status := TransactionStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", false
	}
	return status, true
}

// Valid reports whether the status is one of the stored lower-case values.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusDeclined:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusDeclined
}

// Decision is the reviewer verdict on a pending withdrawal.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDecline Decision = "decline"
)

// ParseDecision normalizes case and reports whether the value is a known decision.
func ParseDecision(value string) (Decision, bool) {
	decision := Decision(strings.ToLower(strings.TrimSpace(value)))
	switch decision {
	case DecisionApprove, DecisionDecline:
		return decision, true
	}
	return "", false
}

// Transaction is a withdrawal request owned by a single account.
type Transaction struct {
	ID          string
	Amount      int64
	Destination string
	Status      TransactionStatus
	CreatedAt   time.Time
	ReviewedAt  *time.Time
}

// Account holds the balance in minor units of Currency together with its withdrawals.
type Account struct {
	ID           string
	Balance      int64
	Currency     string
	Version      int64
	CreatedAt    time.Time
	Transactions []Transaction
}

// Reserved sums amounts of withdrawals still awaiting review.
func (a *Account) Reserved() int64 {
	var sum int64
	for _, tx := range a.Transactions {
		if tx.Status == TransactionStatusPending {
			sum += tx.Amount
		}
	}
	return sum
}

// Available is the balance not yet reserved by pending withdrawals.
func (a *Account) Available() int64 {
	return a.Balance - a.Reserved()
}

// Transaction returns a pointer into the account's transaction list.
func (a *Account) Transaction(id string) (*Transaction, bool) {
	for i := range a.Transactions {
		if a.Transactions[i].ID == id {
			return &a.Transactions[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy safe to mutate independently.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Transactions = make([]Transaction, len(a.Transactions))
	for i, tx := range a.Transactions {
		if tx.ReviewedAt != nil {
			reviewed := *tx.ReviewedAt
			tx.ReviewedAt = &reviewed
		}
		cp.Transactions[i] = tx
	}
	return &cp
}

// Summary projects the account onto its balance figures.
func (a *Account) Summary() AccountSummary {
	reserved := a.Reserved()
	return AccountSummary{
		AccountID: a.ID,
		Currency:  a.Currency,
		Balance:   a.Balance,
		Reserved:  reserved,
		Available: a.Balance - reserved,
	}
}

// AccountSummary aggregates balance figures shown to the account holder.
type AccountSummary struct {
	AccountID string
	Currency  string
	Balance   int64
	Reserved  int64
	Available int64
}

// Withdrawal is a transaction together with the owning account and its currency.
type Withdrawal struct {
	AccountID   string
	Currency    string
	Transaction Transaction
}
