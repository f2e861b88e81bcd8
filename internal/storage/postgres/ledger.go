package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
	"github.com/polkiloo/cashout/internal/ledger"
)

// snapshotTx reads an account row and its transactions as one consistent view.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// errVersionConflict means the account row changed under a held row lock.
var errVersionConflict = errors.New("account version conflict")

type ledgerStore struct {
	storage *Storage
}

var _ repository.LedgerStore = (*ledgerStore)(nil)

const (
	selectAccount      = `SELECT id, balance, currency, version, created_at FROM accounts WHERE id=$1`
	selectTransactions = `SELECT id, amount, destination, status, created_at, reviewed_at
                          FROM transactions WHERE account_id=$1 ORDER BY seq`
	insertTransaction = `INSERT INTO transactions (id, account_id, amount, destination, status, created_at, reviewed_at)
                         VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

func (r *ledgerStore) Create(ctx context.Context, account model.Account) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO accounts (id, balance, currency, version, created_at) VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, query, account.ID, account.Balance, account.Currency, account.Version, account.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return domainErrors.ErrAlreadyExists
			}
			return unavailable(err)
		}
		for _, t := range account.Transactions {
			if err := insertTx(ctx, tx, account.ID, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ledgerStore) Get(ctx context.Context, accountID string) (*model.Account, error) {
	var account *model.Account
	err := r.storage.withinTransaction(ctx, snapshotTx, func(tx pgx.Tx) error {
		var err error
		account, err = loadAccount(ctx, tx, selectAccount, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *ledgerStore) ApplyIfBalanceAtLeast(ctx context.Context, accountID string, required int64, mutation repository.Mutation) (*model.Account, error) {
	var next *model.Account
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		current, err := loadAccount(ctx, tx, selectAccount+` FOR UPDATE`, accountID)
		if err != nil {
			return err
		}
		applied, err := ledger.Apply(current, required, mutation)
		if err != nil {
			return err
		}
		if err := persistDiff(ctx, tx, current, applied); err != nil {
			return err
		}
		next = applied
		return nil
	})
	if err != nil {
		if domainErrors.IsRetryable(err) && r.storage.logger != nil {
			r.storage.logger.Warn("ledger update failed", "account", accountID, "error", err)
		}
		return nil, err
	}
	return next, nil
}

func (r *ledgerStore) ListAccounts(ctx context.Context) ([]string, error) {
	rows, err := r.storage.pool.Query(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return ids, nil
}

func loadAccount(ctx context.Context, q querier, query, accountID string) (*model.Account, error) {
	var account model.Account
	err := q.QueryRow(ctx, query, accountID).Scan(&account.ID, &account.Balance, &account.Currency, &account.Version, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, unavailable(err)
	}

	rows, err := q.Query(ctx, selectTransactions, accountID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t        model.Transaction
			status   string
			reviewed *time.Time
		)
		if err := rows.Scan(&t.ID, &t.Amount, &t.Destination, &status, &t.CreatedAt, &reviewed); err != nil {
			return nil, unavailable(err)
		}
		t.Status = model.TransactionStatus(status)
		t.ReviewedAt = reviewed
		account.Transactions = append(account.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return &account, nil
}

// persistDiff writes the changes between two snapshots of the same account.
// Apply guarantees existing transactions only change status and review time.
func persistDiff(ctx context.Context, q querier, current, next *model.Account) error {
	const updateAccount = `UPDATE accounts SET balance=$1, version=$2 WHERE id=$3 AND version=$4`
	tag, err := q.Exec(ctx, updateAccount, next.Balance, next.Version, next.ID, current.Version)
	if err != nil {
		return unavailable(err)
	}
	if tag.RowsAffected() != 1 {
		return unavailable(fmt.Errorf("%w: account %s", errVersionConflict, next.ID))
	}

	const updateStatus = `UPDATE transactions SET status=$1, reviewed_at=$2 WHERE id=$3 AND account_id=$4`
	for i, before := range current.Transactions {
		after := next.Transactions[i]
		if after.Status == before.Status && sameTime(after.ReviewedAt, before.ReviewedAt) {
			continue
		}
		if _, err := q.Exec(ctx, updateStatus, string(after.Status), after.ReviewedAt, after.ID, next.ID); err != nil {
			return unavailable(err)
		}
	}

	for _, t := range next.Transactions[len(current.Transactions):] {
		if err := insertTx(ctx, q, next.ID, t); err != nil {
			return err
		}
	}
	return nil
}

func insertTx(ctx context.Context, q querier, accountID string, t model.Transaction) error {
	if _, err := q.Exec(ctx, insertTransaction, t.ID, accountID, t.Amount, t.Destination, string(t.Status), t.CreatedAt, t.ReviewedAt); err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyExists
		}
		return unavailable(err)
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
