package migration

import (
	"github.com/ledgerline/invoicer/internal/config"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
	paymentdomain "github.com/ledgerline/invoicer/internal/payment/domain"
	"github.com/ledgerline/invoicer/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite and mysql are dev conveniences; let gorm build the schema.
			if err := conn.AutoMigrate(
				&identitydomain.Company{},
				&identitydomain.User{},
				&identitydomain.Session{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&invoicedomain.InvoiceSequence{},
				&paymentdomain.Payment{},
			); err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.BootstrapAdminEmail != "" && cfg.BootstrapAdminPassword != "" {
			return seed.EnsureAdmin(conn, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		}
		return nil
	}),
)
