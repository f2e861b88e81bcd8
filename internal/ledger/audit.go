package ledger

import (
	"fmt"

	"github.com/polkiloo/cashout/internal/domain/model"
)

// Violation describes a broken ledger invariant found on a persisted account.
type Violation struct {
	AccountID     string
	TransactionID string
	Rule          string
	Detail        string
}

func (v Violation) String() string {
	if v.TransactionID == "" {
		return fmt.Sprintf("%s: %s (%s)", v.AccountID, v.Rule, v.Detail)
	}
	return fmt.Sprintf("%s/%s: %s (%s)", v.AccountID, v.TransactionID, v.Rule, v.Detail)
}

// Audit checks an account snapshot against the ledger invariants.
func Audit(account *model.Account) []Violation {
	var violations []Violation
	add := func(txID, rule, detail string) {
		violations = append(violations, Violation{AccountID: account.ID, TransactionID: txID, Rule: rule, Detail: detail})
	}

	if account.Balance < 0 {
		add("", "negative_balance", fmt.Sprintf("balance=%d", account.Balance))
	}
	if available := account.Available(); available < 0 {
		add("", "overcommitted", fmt.Sprintf("available=%d", available))
	}

	seen := make(map[string]struct{}, len(account.Transactions))
	for _, tx := range account.Transactions {
		if _, dup := seen[tx.ID]; dup {
			add(tx.ID, "duplicate_id", "transaction id reused")
		}
		seen[tx.ID] = struct{}{}

		if tx.Amount <= 0 {
			add(tx.ID, "non_positive_amount", fmt.Sprintf("amount=%d", tx.Amount))
		}
		if !tx.Status.Valid() {
			add(tx.ID, "unknown_status", string(tx.Status))
		}
		if tx.Status.IsTerminal() && tx.ReviewedAt == nil {
			add(tx.ID, "missing_review_time", string(tx.Status))
		}
	}
	return violations
}
