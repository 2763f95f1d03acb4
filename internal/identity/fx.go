package identity

import (
	"time"

	"github.com/ledgerline/invoicer/internal/config"
	"github.com/ledgerline/invoicer/internal/identity/service"
	"go.uber.org/fx"
)

// Module wires the user/company directory and session authentication.
var Module = fx.Module("identity.service",
	fx.Provide(
		fx.Annotate(
			func(cfg config.Config) time.Duration {
				return time.Duration(cfg.SessionTTLHours) * time.Hour
			},
			fx.ResultTags(`name:"session_ttl"`),
		),
	),
	fx.Provide(service.New),
)
