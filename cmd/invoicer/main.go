package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/ledgerline/invoicer/internal/authorization"
	"github.com/ledgerline/invoicer/internal/clock"
	"github.com/ledgerline/invoicer/internal/config"
	"github.com/ledgerline/invoicer/internal/identity"
	"github.com/ledgerline/invoicer/internal/invoice"
	"github.com/ledgerline/invoicer/internal/logger"
	"github.com/ledgerline/invoicer/internal/migration"
	"github.com/ledgerline/invoicer/internal/payment"
	"github.com/ledgerline/invoicer/internal/providers"
	"github.com/ledgerline/invoicer/internal/ratelimit"
	"github.com/ledgerline/invoicer/internal/server"
	"github.com/ledgerline/invoicer/pkg/db"
	"github.com/ledgerline/invoicer/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		telemetry.Module,
		migration.Module,

		identity.Module,
		authorization.Module,
		invoice.Module,
		payment.Module,
		providers.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
