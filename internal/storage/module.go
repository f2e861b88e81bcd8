// Package storage selects the ledger backend configured for the process.
package storage

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/cashout/internal/config"
	"github.com/polkiloo/cashout/internal/domain/repository"
	"github.com/polkiloo/cashout/internal/ledger"
	"github.com/polkiloo/cashout/internal/storage/postgres"
	"github.com/polkiloo/cashout/internal/storage/redis"
	"github.com/polkiloo/cashout/internal/storage/resilient"
)

// Module provides the user repository and the configured ledger store.
var Module = fx.Options(
	postgres.Module,
	fx.Provide(newLedgerStore),
)

type ledgerParams struct {
	fx.In

	Ctx          context.Context
	Lifecycle    fx.Lifecycle
	Config       *config.Config
	Logger       *slog.Logger
	Repositories repository.Factory
}

var openRedis = redis.Open

func newLedgerStore(p ledgerParams) (repository.LedgerStore, error) {
	var base repository.LedgerStore
	switch p.Config.LedgerBackend {
	case config.LedgerMemory:
		base = ledger.NewMemoryStore()
	case config.LedgerRedis:
		store, err := openRedis(p.Ctx, p.Lifecycle, p.Config.RedisAddress, p.Config.RedisPassword, p.Logger)
		if err != nil {
			return nil, err
		}
		base = store
	default:
		base = p.Repositories.Ledger()
	}

	p.Logger.Info("ledger backend selected", slog.String("backend", p.Config.LedgerBackend))
	return resilient.New(base, resilient.Settings{
		Name:                "ledger-" + p.Config.LedgerBackend,
		ConsecutiveFailures: uint32(p.Config.BreakerFailures),
		OpenTimeout:         p.Config.BreakerTimeout,
	}, p.Logger), nil
}
