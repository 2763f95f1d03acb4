package payment

import (
	"github.com/ledgerline/invoicer/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(service.New),
)
