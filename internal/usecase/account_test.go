package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/ledger"
	testhelpers "github.com/polkiloo/cashout/internal/test"
)

func TestAccountUseCaseOpen(t *testing.T) {
	store := ledger.NewMemoryStore()
	uc := NewAccountUseCase(store)
	opened := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return opened }

	account, err := uc.Open(context.Background(), "", "gbp")
	if err != nil {
		t.Fatalf("open returned error: %v", err)
	}
	if account.ID == "" || account.Currency != "GBP" || account.Balance != 0 || !account.CreatedAt.Equal(opened) {
		t.Fatalf("unexpected account %+v", account)
	}

	if _, err := uc.Open(context.Background(), account.ID, "GBP"); err != domainErrors.ErrAlreadyExists {
		t.Fatalf("expected already exists, got %v", err)
	}
	if _, err := uc.Open(context.Background(), "", "pounds"); err != domainErrors.ErrInvalidCurrency {
		t.Fatalf("expected invalid currency, got %v", err)
	}

	ids, err := uc.Accounts(context.Background())
	if err != nil || len(ids) != 1 || ids[0] != account.ID {
		t.Fatalf("unexpected accounts %v (%v)", ids, err)
	}
}

func TestAccountUseCaseSummary(t *testing.T) {
	uc, store := newSeededWorkflow(t, 250)
	accounts := NewAccountUseCase(store)
	if _, err := uc.Submit(context.Background(), testAccountID, 100, "x"); err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	summary, err := accounts.Summary(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}
	want := model.AccountSummary{AccountID: testAccountID, Currency: "USD", Balance: 250, Reserved: 100, Available: 150}
	if *summary != want {
		t.Fatalf("expected %+v, got %+v", want, *summary)
	}

	if _, err := accounts.Summary(context.Background(), "missing"); err != domainErrors.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAccountUseCaseSetBalance(t *testing.T) {
	uc, store := newSeededWorkflow(t, 100)
	accounts := NewAccountUseCase(store)
	ctx := context.Background()

	if _, err := uc.Submit(ctx, testAccountID, 60, "x"); err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	if _, err := accounts.SetBalance(ctx, testAccountID, -1); err != domainErrors.ErrInvalidAmount {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := accounts.SetBalance(ctx, testAccountID, 59); err != domainErrors.ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds below reserved, got %v", err)
	}

	summary, err := accounts.SetBalance(ctx, testAccountID, 60)
	if err != nil {
		t.Fatalf("set balance returned error: %v", err)
	}
	if summary.Balance != 60 || summary.Available != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	summary, err = accounts.SetBalance(ctx, testAccountID, 500)
	if err != nil {
		t.Fatalf("set balance returned error: %v", err)
	}
	if summary.Balance != 500 || summary.Reserved != 60 || summary.Available != 440 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestAccountUseCaseAudit(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	if err := store.Create(ctx, model.Account{ID: "clean", Balance: 10, Currency: "USD"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Create(ctx, model.Account{ID: "broken", Balance: -1, Currency: "USD"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	uc := NewAccountUseCase(store)

	violations, err := uc.Audit(ctx, "clean")
	if err != nil || len(violations) != 0 {
		t.Fatalf("expected clean account, got %v (%v)", violations, err)
	}

	violations, err = uc.Audit(ctx, "broken")
	if err != nil {
		t.Fatalf("audit returned error: %v", err)
	}
	if len(violations) == 0 || violations[0].Rule != "negative_balance" {
		t.Fatalf("expected negative balance violation, got %v", violations)
	}

	if _, err := uc.Audit(ctx, "missing"); err != domainErrors.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAccountUseCaseList(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	for _, account := range []model.Account{
		{ID: "acc-b", Balance: 300, Currency: "EUR", Transactions: []model.Transaction{
			{ID: "t1", Amount: 120, Status: model.TransactionStatusPending},
			{ID: "t2", Amount: 50, Status: model.TransactionStatusApproved},
		}},
		{ID: "acc-a", Balance: 10, Currency: "USD"},
	} {
		if err := store.Create(ctx, account); err != nil {
			t.Fatalf("seed %s: %v", account.ID, err)
		}
	}

	summaries, err := NewAccountUseCase(store).List(ctx)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	want := []model.AccountSummary{
		{AccountID: "acc-a", Currency: "USD", Balance: 10, Available: 10},
		{AccountID: "acc-b", Currency: "EUR", Balance: 300, Reserved: 120, Available: 180},
	}
	if len(summaries) != len(want) {
		t.Fatalf("expected %d summaries, got %+v", len(want), summaries)
	}
	for i := range want {
		if summaries[i] != want[i] {
			t.Fatalf("summary %d: expected %+v, got %+v", i, want[i], summaries[i])
		}
	}
}

func TestAccountUseCaseListSkipsVanishedAccounts(t *testing.T) {
	store := testhelpers.LedgerStoreStub{
		ListAccountsFn: func(context.Context) ([]string, error) { return []string{"gone", "kept"}, nil },
		GetFn: func(_ context.Context, id string) (*model.Account, error) {
			if id == "gone" {
				return nil, domainErrors.ErrNotFound
			}
			return &model.Account{ID: id, Currency: "USD", Balance: 5}, nil
		},
	}
	summaries, err := NewAccountUseCase(store).List(context.Background())
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].AccountID != "kept" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}

	failing := testhelpers.LedgerStoreStub{ListAccountsFn: func(context.Context) ([]string, error) {
		return nil, fmt.Errorf("%w: reset", domainErrors.ErrStoreUnavailable)
	}}
	if _, err := NewAccountUseCase(failing).List(context.Background()); !errors.Is(err, domainErrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}
