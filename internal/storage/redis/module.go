package redis

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
)

// Open dials Redis and closes the client when the application stops.
func Open(ctx context.Context, lc fx.Lifecycle, addr, password string, logger *slog.Logger) (*Store, error) {
	store, err := Dial(ctx, addr, password, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}
