package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/ledger"
)

const (
	testAccount      = "4f3c2b1a-0000-4000-8000-000000000001"
	accountRowQuery  = "SELECT id, balance, currency, version, created_at FROM accounts WHERE id="
	lockedRowQuery   = "FROM accounts WHERE id=.+ FOR UPDATE"
	transactionQuery = "FROM transactions WHERE account_id="
)

var (
	accountColumns = []string{"id", "balance", "currency", "version", "created_at"}
	txColumns      = []string{"id", "amount", "destination", "status", "created_at", "reviewed_at"}
)

func TestLedgerCreate(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &ledgerStore{storage: storage}
	createdAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").WithArgs(testAccount, int64(0), "USD", int64(0), createdAt).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectCommit()
	if err := store.Create(context.Background(), model.Account{ID: testAccount, Currency: "USD", CreatedAt: createdAt}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").WithArgs(testAccount, int64(0), "USD", int64(0), createdAt).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()
	if err := store.Create(context.Background(), model.Account{ID: testAccount, Currency: "USD", CreatedAt: createdAt}); err != domainErrors.ErrAlreadyExists {
		t.Fatalf("expected already exists, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").WithArgs(testAccount, int64(50), "EUR", int64(0), createdAt).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO transactions").WithArgs("t1", testAccount, int64(10), "dest", "pending", createdAt, pgxmockv3.AnyArg()).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	err := store.Create(context.Background(), model.Account{ID: testAccount, Balance: 50, Currency: "EUR", CreatedAt: createdAt, Transactions: []model.Transaction{
		{ID: "t1", Amount: 10, Destination: "dest", Status: model.TransactionStatusPending, CreatedAt: createdAt},
	}})
	if !errors.Is(err, domainErrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestLedgerGet(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &ledgerStore{storage: storage}
	now := time.Now()
	reviewed := now.Add(time.Minute)

	mock.ExpectBeginTx(snapshotTx)
	mock.ExpectQuery(accountRowQuery).WithArgs(testAccount).WillReturnRows(
		pgxmockv3.NewRows(accountColumns).AddRow(testAccount, int64(100), "USD", int64(3), now))
	mock.ExpectQuery(transactionQuery).WithArgs(testAccount).WillReturnRows(
		pgxmockv3.NewRows(txColumns).
			AddRow("t1", int64(30), "x", "approved", now, &reviewed).
			AddRow("t2", int64(20), "y", "pending", now, nil))
	mock.ExpectCommit()

	account, err := store.Get(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 100 || account.Version != 3 || len(account.Transactions) != 2 {
		t.Fatalf("unexpected account %+v", account)
	}
	if account.Transactions[0].Status != model.TransactionStatusApproved || account.Transactions[0].ReviewedAt == nil {
		t.Fatalf("unexpected first transaction %+v", account.Transactions[0])
	}
	if account.Transactions[1].ReviewedAt != nil || account.Reserved() != 20 {
		t.Fatalf("unexpected second transaction %+v", account.Transactions[1])
	}

	mock.ExpectBeginTx(snapshotTx)
	mock.ExpectQuery(accountRowQuery).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	if _, err := store.Get(context.Background(), "missing"); err != domainErrors.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectBeginTx(snapshotTx)
	mock.ExpectQuery(accountRowQuery).WithArgs(testAccount).WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()
	if _, err := store.Get(context.Background(), testAccount); !errors.Is(err, domainErrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}

	mock.ExpectBeginTx(snapshotTx)
	mock.ExpectQuery(accountRowQuery).WithArgs(testAccount).WillReturnRows(
		pgxmockv3.NewRows(accountColumns).AddRow(testAccount, int64(100), "USD", int64(3), now))
	mock.ExpectQuery(transactionQuery).WithArgs(testAccount).WillReturnRows(
		pgxmockv3.NewRows(txColumns).AddRow("t1", int64(30), "x", "pending", now, nil).RowError(0, errors.New("row")))
	mock.ExpectRollback()
	if _, err := store.Get(context.Background(), testAccount); !errors.Is(err, domainErrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable on row error, got %v", err)
	}

	mock.ExpectBeginTx(snapshotTx).WillReturnError(errors.New("pool exhausted"))
	if _, err := store.Get(context.Background(), testAccount); !errors.Is(err, domainErrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable on begin failure, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func expectLockedAccount(mock pgxmockv3.PgxPoolIface, balance, version int64, txRows *pgxmockv3.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(lockedRowQuery).WithArgs(testAccount).WillReturnRows(
		pgxmockv3.NewRows(accountColumns).AddRow(testAccount, balance, "USD", version, time.Now()))
	mock.ExpectQuery(transactionQuery).WithArgs(testAccount).WillReturnRows(txRows)
}

func TestLedgerApplyAppendsTransaction(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &ledgerStore{storage: storage}
	createdAt := time.Now()

	expectLockedAccount(mock, 100, 1, pgxmockv3.NewRows(txColumns))
	mock.ExpectExec("UPDATE accounts SET balance=").WithArgs(int64(100), int64(2), testAccount, int64(1)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO transactions").WithArgs("t1", testAccount, int64(60), "x", "pending", createdAt, pgxmockv3.AnyArg()).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectCommit()

	next, err := ledger.AppendTransaction(context.Background(), store, testAccount, model.Transaction{
		ID: "t1", Amount: 60, Destination: "x", Status: model.TransactionStatusPending, CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Version != 2 || next.Reserved() != 60 || next.Balance != 100 {
		t.Fatalf("unexpected snapshot %+v", next)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestLedgerApplyPersistsStatusChange(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &ledgerStore{storage: storage}
	now := time.Now()
	reviewedAt := now.Add(time.Hour)

	expectLockedAccount(mock, 100, 4, pgxmockv3.NewRows(txColumns).
		AddRow("t1", int64(30), "x", "pending", now, nil).
		AddRow("t2", int64(20), "y", "pending", now, nil))
	mock.ExpectExec("UPDATE accounts SET balance=").WithArgs(int64(70), int64(5), testAccount, int64(4)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE transactions SET status=").WithArgs("approved", pgxmockv3.AnyArg(), "t1", testAccount).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	next, err := store.ApplyIfBalanceAtLeast(context.Background(), testAccount, 0, func(account *model.Account) error {
		account.Balance -= 30
		_, err := ledger.Transition(account, "t1", model.TransactionStatusPending, model.TransactionStatusApproved, reviewedAt)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx, _ := next.Transaction("t1")
	if next.Balance != 70 || tx.Status != model.TransactionStatusApproved || !tx.ReviewedAt.Equal(reviewedAt) {
		t.Fatalf("unexpected snapshot %+v", next)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestLedgerApplyBusinessErrorsRollBack(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &ledgerStore{storage: storage}
	now := time.Now()

	expectLockedAccount(mock, 50, 1, pgxmockv3.NewRows(txColumns))
	mock.ExpectRollback()
	if _, err := store.ApplyIfBalanceAtLeast(context.Background(), testAccount, 60, nil); err != domainErrors.ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	expectLockedAccount(mock, 50, 1, pgxmockv3.NewRows(txColumns).AddRow("t1", int64(30), "x", "declined", now, &now))
	mock.ExpectRollback()
	_, err := ledger.UpdateTransactionStatus(context.Background(), store, testAccount, "t1",
		model.TransactionStatusPending, model.TransactionStatusApproved, now)
	if err != domainErrors.ErrAlreadyFinalized {
		t.Fatalf("expected already finalized, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(lockedRowQuery).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	if _, err := store.ApplyIfBalanceAtLeast(context.Background(), "missing", 0, nil); err != domainErrors.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestLedgerApplyInfrastructureFailures(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &ledgerStore{storage: storage}
	bump := func(account *model.Account) error {
		account.Balance += 1
		return nil
	}

	expectLockedAccount(mock, 10, 1, pgxmockv3.NewRows(txColumns))
	mock.ExpectExec("UPDATE accounts SET balance=").WithArgs(int64(11), int64(2), testAccount, int64(1)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectRollback()
	_, err := store.ApplyIfBalanceAtLeast(context.Background(), testAccount, 0, bump)
	if !errors.Is(err, domainErrors.ErrStoreUnavailable) || !errors.Is(err, errVersionConflict) {
		t.Fatalf("expected version conflict reported as unavailable, got %v", err)
	}

	expectLockedAccount(mock, 10, 1, pgxmockv3.NewRows(txColumns))
	mock.ExpectExec("UPDATE accounts SET balance=").WithArgs(int64(11), int64(2), testAccount, int64(1)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection lost"))
	if _, err := store.ApplyIfBalanceAtLeast(context.Background(), testAccount, 0, bump); !domainErrors.IsRetryable(err) {
		t.Fatalf("expected retryable commit failure, got %v", err)
	}

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))
	if _, err := store.ApplyIfBalanceAtLeast(context.Background(), testAccount, 0, bump); !domainErrors.IsRetryable(err) {
		t.Fatalf("expected retryable begin failure, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestLedgerListAccounts(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &ledgerStore{storage: storage}

	mock.ExpectQuery("SELECT id FROM accounts ORDER BY id").WillReturnRows(
		pgxmockv3.NewRows([]string{"id"}).AddRow("a").AddRow("b"))
	ids, err := store.ListAccounts(context.Background())
	if err != nil || len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected result %v err=%v", ids, err)
	}

	mock.ExpectQuery("SELECT id FROM accounts ORDER BY id").WillReturnError(errors.New("query"))
	if _, err := store.ListAccounts(context.Background()); !errors.Is(err, domainErrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestLedgerListAccountsRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	store := &ledgerStore{storage: storage}

	if _, err := store.ListAccounts(context.Background()); !errors.Is(err, domainErrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}
