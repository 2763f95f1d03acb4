package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	"github.com/ledgerline/invoicer/internal/identity/password"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
	"gorm.io/gorm"
)

const (
	defaultCompanyName = "Main"
	defaultAdminName   = "Administrator"
)

// EnsureAdmin seeds a company and admin user so a fresh self-hosted install
// is usable without going through registration.
func EnsureAdmin(db *gorm.DB, email, rawPassword string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || rawPassword == "" {
		return errors.New("seed admin email and password are required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing identitydomain.User
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		company := identitydomain.Company{
			ID:        node.Generate(),
			Name:      defaultCompanyName,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		hash, err := password.Hash(rawPassword)
		if err != nil {
			return err
		}
		admin := identitydomain.User{
			ID:           node.Generate(),
			CompanyID:    company.ID,
			Role:         identitydomain.RoleAdmin,
			Name:         defaultAdminName,
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		seq := invoicedomain.InvoiceSequence{CompanyID: company.ID}
		return tx.Create(&seq).Error
	})
}
