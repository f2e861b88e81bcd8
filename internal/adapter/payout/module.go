package payout

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/cashout/internal/config"
)

// Module exposes payout notifier implementation to fx graph.
var Module = fx.Provide(newNotifier)

type notifierParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newNotifier(p notifierParams) (Notifier, error) {
	if p.Config.PayoutWebhookURL == "" {
		return NopNotifier{}, nil
	}
	return NewWebhookNotifier(p.Config.PayoutWebhookURL, p.Logger)
}
