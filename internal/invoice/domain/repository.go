package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerline/invoicer/pkg/db/pagination"
	"gorm.io/gorm"
)

// Scope bounds a query to what the actor may see: company-wide for admins,
// self-relevant (creator or billed customer) otherwise.
type Scope struct {
	CompanyID snowflake.ID
	UserID    snowflake.ID
	Admin     bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)

	// ReplaceContent rewrites items, dates, rates, and amounts. The write is
	// conditional on the invoice not being PAID; false means the guard held.
	ReplaceContent(ctx context.Context, db *gorm.DB, invoice *Invoice) (bool, error)
	// UpdateStatus moves the invoice to status unless it is already PAID;
	// false means the guard held.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status InvoiceStatus) (bool, error)

	// DeleteUnpaid removes the invoice unless it is PAID; false means the
	// guard held.
	DeleteUnpaid(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)

	// MarkPaid flips status to PAID and records payment details in a single
	// conditional statement; false means the invoice was already PAID.
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, method string, transactionID string, amount float64, paidAt time.Time) (bool, error)

	List(ctx context.Context, db *gorm.DB, scope Scope, status InvoiceStatus, page pagination.Pagination) ([]Invoice, int64, error)
	Summarize(ctx context.Context, db *gorm.DB, scope Scope, now time.Time) (Summary, error)

	// NextSequence atomically increments and returns the per-company invoice
	// counter. Must run inside the create transaction.
	NextSequence(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (int64, error)
}
