package invoice

import (
	"github.com/ledgerline/invoicer/internal/config"
	"github.com/ledgerline/invoicer/internal/invoice/repository"
	"github.com/ledgerline/invoicer/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice",
	fx.Provide(
		repository.Provide,
		func(cfg config.Config) service.Defaults {
			return service.Defaults{
				TaxRate:      cfg.DefaultTaxRate,
				DiscountRate: cfg.DefaultDiscountRate,
			}
		},
		service.New,
	),
)
