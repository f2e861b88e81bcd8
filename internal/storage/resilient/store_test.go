package resilient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
	"github.com/polkiloo/cashout/internal/ledger"
	testhelpers "github.com/polkiloo/cashout/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDelegatesToWrappedStore(t *testing.T) {
	memory := ledger.NewMemoryStore()
	store := New(memory, Settings{OpenTimeout: time.Minute}, discardLogger())
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, model.Account{ID: "acc", Balance: 50, Currency: "USD"}))
	assert.ErrorIs(t, store.Create(ctx, model.Account{ID: "acc", Currency: "USD"}), domainErrors.ErrAlreadyExists)

	next, err := store.ApplyIfBalanceAtLeast(ctx, "acc", 20, func(account *model.Account) error {
		account.Balance -= 20
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), next.Balance)

	account, err := store.Get(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.Balance)

	ids, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acc"}, ids)
}

func TestBusinessErrorsDoNotTrip(t *testing.T) {
	stub := testhelpers.LedgerStoreStub{ApplyFn: func(context.Context, string, int64, repository.Mutation) (*model.Account, error) {
		return nil, domainErrors.ErrInsufficientFunds
	}}
	store := New(stub, Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, discardLogger())

	for i := 0; i < 10; i++ {
		_, err := store.ApplyIfBalanceAtLeast(context.Background(), "acc", 1, nil)
		assert.Same(t, domainErrors.ErrInsufficientFunds, err)
	}
	assert.Equal(t, gobreaker.StateClosed, store.State())
}

func TestInfrastructureFailuresOpenCircuit(t *testing.T) {
	calls := 0
	stub := testhelpers.LedgerStoreStub{GetFn: func(context.Context, string) (*model.Account, error) {
		calls++
		return nil, fmt.Errorf("%w: connection refused", domainErrors.ErrStoreUnavailable)
	}}
	store := New(stub, Settings{ConsecutiveFailures: 3, OpenTimeout: time.Minute}, discardLogger())

	for i := 0; i < 3; i++ {
		_, err := store.Get(context.Background(), "acc")
		assert.True(t, domainErrors.IsRetryable(err))
	}
	assert.Equal(t, gobreaker.StateOpen, store.State())

	_, err := store.Get(context.Background(), "acc")
	assert.ErrorIs(t, err, domainErrors.ErrStoreUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls, "open circuit must short-circuit calls")
}

func TestCircuitRecoversAfterTimeout(t *testing.T) {
	failing := true
	stub := testhelpers.LedgerStoreStub{ListAccountsFn: func(context.Context) ([]string, error) {
		if failing {
			return nil, fmt.Errorf("%w: timeout", domainErrors.ErrStoreUnavailable)
		}
		return []string{"acc"}, nil
	}}
	store := New(stub, Settings{ConsecutiveFailures: 1, OpenTimeout: 20 * time.Millisecond}, discardLogger())

	_, err := store.ListAccounts(context.Background())
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, store.State())

	failing = false
	require.Eventually(t, func() bool {
		return store.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	ids, err := store.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acc"}, ids)
	assert.Equal(t, gobreaker.StateClosed, store.State())
}

func TestNonStoreErrorsPassThrough(t *testing.T) {
	boom := errors.New("mutation rejected")
	stub := testhelpers.LedgerStoreStub{CreateFn: func(context.Context, model.Account) error { return boom }}
	store := New(stub, Settings{ConsecutiveFailures: 1}, discardLogger())

	assert.Same(t, boom, store.Create(context.Background(), model.Account{ID: "acc"}))
	assert.Equal(t, gobreaker.StateClosed, store.State())
}
