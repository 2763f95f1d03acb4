package logger

import (
	"context"

	"github.com/ledgerline/invoicer/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the shared zap logger with a flush-on-shutdown hook.
var Module = fx.Module("logger",
	fx.Provide(func(cfg config.Config) (*zap.Logger, error) {
		return New(cfg.LogLevel)
	}),
	fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
	}),
)
