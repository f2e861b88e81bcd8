// Package resilient guards a LedgerStore with a circuit breaker. Only
// infrastructure failures trip the breaker; business outcomes such as
// insufficient funds pass through as successful calls.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
)

// Settings tunes the breaker.
type Settings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32
}

// Store decorates a LedgerStore with a circuit breaker.
type Store struct {
	next    repository.LedgerStore
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ repository.LedgerStore = (*Store)(nil)

// New wraps next.
func New(next repository.LedgerStore, settings Settings, logger *slog.Logger) *Store {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.HalfOpenRequests == 0 {
		settings.HalfOpenRequests = 1
	}
	if settings.Name == "" {
		settings.Name = "ledger"
	}

	s := &Store{next: next, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return !domainErrors.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ledger circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

// State reports the current breaker state.
func (s *Store) State() gobreaker.State {
	return s.breaker.State()
}

func (s *Store) Create(ctx context.Context, account model.Account) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.next.Create(ctx, account)
	})
	return err
}

func (s *Store) Get(ctx context.Context, accountID string) (*model.Account, error) {
	return s.account(func() (*model.Account, error) {
		return s.next.Get(ctx, accountID)
	})
}

func (s *Store) ApplyIfBalanceAtLeast(ctx context.Context, accountID string, required int64, mutation repository.Mutation) (*model.Account, error) {
	return s.account(func() (*model.Account, error) {
		return s.next.ApplyIfBalanceAtLeast(ctx, accountID, required, mutation)
	})
}

func (s *Store) ListAccounts(ctx context.Context) ([]string, error) {
	out, err := s.execute(func() (any, error) {
		return s.next.ListAccounts(ctx)
	})
	if err != nil {
		return nil, err
	}
	ids, _ := out.([]string)
	return ids, nil
}

func (s *Store) account(fn func() (*model.Account, error)) (*model.Account, error) {
	out, err := s.execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	account, _ := out.(*model.Account)
	return account, nil
}

func (s *Store) execute(fn func() (any, error)) (any, error) {
	out, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrStoreUnavailable, err)
	}
	return out, err
}
