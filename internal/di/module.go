package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/cashout/internal/adapter/payout"
	"github.com/polkiloo/cashout/internal/app"
	"github.com/polkiloo/cashout/internal/config"
	"github.com/polkiloo/cashout/internal/logger"
	"github.com/polkiloo/cashout/internal/pkg/auth"
	"github.com/polkiloo/cashout/internal/server/http/handlers"
	"github.com/polkiloo/cashout/internal/server/http/router"
	"github.com/polkiloo/cashout/internal/storage"
	"github.com/polkiloo/cashout/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		storage.Module,
		payout.Module,
		usecase.Module,
		fx.Provide(func(n payout.Notifier) app.PayoutNotifier { return n }),
		fx.Provide(func(f *app.CashoutFacade) handlers.CashoutFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
