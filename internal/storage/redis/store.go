// Package redis keeps ledger accounts as JSON documents in Redis. Updates to an
// account are serialized with a RedLock mutex and committed with WATCH/MULTI so
// a writer that lost its lock can never overwrite a newer document.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-redsync/redsync/v4"
	redsyncgoredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredis "github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
	"github.com/polkiloo/cashout/internal/ledger"
)

const (
	keyPrefix   = "cashout:account:"
	lockPrefix  = "cashout:lock:account:"
	accountsKey = "cashout:accounts"
)

// errConcurrentWrite means the watched document changed before EXEC.
var errConcurrentWrite = errors.New("account document changed concurrently")

// LockOptions configures the per-account RedLock mutex.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions suits short ledger updates.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     5 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Store implements repository.LedgerStore on top of Redis.
type Store struct {
	client *goredis.Client
	locks  *redsync.Redsync
	opts   LockOptions
	logger *slog.Logger
}

var _ repository.LedgerStore = (*Store)(nil)

// New wraps an existing client.
func New(client *goredis.Client, opts LockOptions, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		locks:  redsync.New(redsyncgoredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, logger *slog.Logger) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return New(client, DefaultLockOptions(), logger), nil
}

// Close releases the client connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func accountKey(id string) string { return keyPrefix + id }

func (s *Store) Create(ctx context.Context, account model.Account) error {
	payload, err := encode(&account)
	if err != nil {
		return err
	}
	key := accountKey(account.ID)

	return s.watch(ctx, key, func(tx *goredis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return unavailable(err)
		}
		if exists > 0 {
			return domainErrors.ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, accountsKey, account.ID)
			return nil
		})
		if errors.Is(err, goredis.TxFailedErr) {
			return domainErrors.ErrAlreadyExists
		}
		if err != nil {
			return unavailable(err)
		}
		return nil
	})
}

func (s *Store) Get(ctx context.Context, accountID string) (*model.Account, error) {
	raw, err := s.client.Get(ctx, accountKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return decode(raw)
}

func (s *Store) ApplyIfBalanceAtLeast(ctx context.Context, accountID string, required int64, mutation repository.Mutation) (*model.Account, error) {
	mutex := s.locks.NewMutex(
		lockPrefix+accountID,
		redsync.WithExpiry(s.opts.Expiry),
		redsync.WithTries(s.opts.Tries),
		redsync.WithRetryDelay(s.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, unavailable(fmt.Errorf("lock account %s: %w", accountID, err))
	}
	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			s.logger.Warn("failed to release account lock", "account", accountID, "error", err)
		}
	}()

	key := accountKey(accountID)
	var next *model.Account
	err := s.watch(ctx, key, func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return domainErrors.ErrNotFound
			}
			return unavailable(err)
		}
		current, err := decode(raw)
		if err != nil {
			return err
		}

		applied, err := ledger.Apply(current, required, mutation)
		if err != nil {
			return err
		}
		payload, err := encode(applied)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if errors.Is(err, goredis.TxFailedErr) {
			return unavailable(fmt.Errorf("%w: %s", errConcurrentWrite, accountID))
		}
		if err != nil {
			return unavailable(err)
		}
		next = applied
		return nil
	})
	if err != nil {
		if domainErrors.IsRetryable(err) {
			s.logger.Warn("ledger update failed", "account", accountID, "error", err)
		}
		return nil, err
	}
	return next, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, accountsKey).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	sort.Strings(ids)
	return ids, nil
}

// watch runs fn under WATCH key. Errors returned by fn are passed through;
// a failure before fn runs means the server could not be reached.
func (s *Store) watch(ctx context.Context, key string, fn func(tx *goredis.Tx) error) error {
	called := false
	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		called = true
		return fn(tx)
	}, key)
	if err != nil && !called {
		return unavailable(err)
	}
	return err
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domainErrors.ErrStoreUnavailable, err)
}
