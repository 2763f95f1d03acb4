package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerline/invoicer/internal/invoice/domain"
	"github.com/ledgerline/invoicer/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Preload("Items").
		Preload("Creator").
		Preload("Customer").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) ReplaceContent(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET customer_id = ?, invoice_date = ?, due_date = ?, status = ?,
		     subtotal = ?, tax_rate = ?, tax_amount = ?,
		     discount_rate = ?, discount_amount = ?, amount_after_discount = ?,
		     total_amount = ?, updated_at = ?
		 WHERE id = ? AND status <> ?`,
		invoice.CustomerID,
		invoice.InvoiceDate,
		invoice.DueDate,
		invoice.Status,
		invoice.Subtotal,
		invoice.TaxRate,
		invoice.TaxAmount,
		invoice.DiscountRate,
		invoice.DiscountAmount,
		invoice.AmountAfterDiscount,
		invoice.TotalAmount,
		invoice.UpdatedAt,
		invoice.ID,
		domain.InvoiceStatusPaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	if err := db.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Delete(&domain.InvoiceItem{}).Error; err != nil {
		return false, err
	}
	if len(invoice.Items) > 0 {
		if err := db.WithContext(ctx).Create(&invoice.Items).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.InvoiceStatus) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		status,
		time.Now().UTC(),
		id,
		domain.InvoiceStatusPaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) DeleteUnpaid(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM invoices WHERE id = ? AND status <> ?`,
		id,
		domain.InvoiceStatusPaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	// Line items cascade at the database level; cover sqlite test setups too.
	err := db.WithContext(ctx).Where("invoice_id = ?", id).Delete(&domain.InvoiceItem{}).Error
	return true, err
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, method string, transactionID string, amount float64, paidAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, payment_method = ?, payment_transaction_id = ?,
		     paid_at = ?, amount_paid = ?, updated_at = ?
		 WHERE id = ? AND status <> ?`,
		domain.InvoiceStatusPaid,
		method,
		transactionID,
		paidAt,
		amount,
		paidAt,
		id,
		domain.InvoiceStatusPaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, scope domain.Scope, status domain.InvoiceStatus, page pagination.Pagination) ([]domain.Invoice, int64, error) {
	norm := page.Normalize()

	base := scopedQuery(db.WithContext(ctx).Model(&domain.Invoice{}), scope)
	if status != "" {
		base = base.Where("status = ?", status)
	}

	var totalItems int64
	if err := base.Session(&gorm.Session{}).Count(&totalItems).Error; err != nil {
		return nil, 0, err
	}

	var invoices []domain.Invoice
	err := base.Session(&gorm.Session{}).
		Preload("Items").
		Preload("Customer").
		Order("CASE WHEN status = 'PAID' THEN 1 ELSE 0 END, due_date ASC, created_at DESC").
		Offset(norm.Offset()).
		Limit(norm.Limit).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}

	return invoices, totalItems, nil
}

func (r *repo) Summarize(ctx context.Context, db *gorm.DB, scope domain.Scope, now time.Time) (domain.Summary, error) {
	var summary domain.Summary
	err := scopedQuery(db.WithContext(ctx).Model(&domain.Invoice{}), scope).
		Select(
			`COUNT(*) AS total_invoices,
			 COALESCE(SUM(total_amount), 0) AS total_amount,
			 COALESCE(SUM(CASE WHEN status = 'PAID' THEN total_amount ELSE 0 END), 0) AS paid_amount,
			 COALESCE(SUM(CASE WHEN status = 'PENDING' THEN total_amount ELSE 0 END), 0) AS pending_amount,
			 COALESCE(SUM(CASE WHEN status = 'CONFIRMED' THEN total_amount ELSE 0 END), 0) AS confirmed_amount,
			 COALESCE(SUM(CASE WHEN due_date < ? AND status NOT IN ('PAID', 'CANCELLED') THEN 1 ELSE 0 END), 0) AS overdue_count`,
			now,
		).
		Scan(&summary).Error
	if err != nil {
		return domain.Summary{}, err
	}
	return summary, nil
}

func (r *repo) NextSequence(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (int64, error) {
	upsert := `INSERT INTO invoice_sequences (company_id, next_value)
		 VALUES (?, 1)
		 ON CONFLICT (company_id) DO UPDATE SET next_value = invoice_sequences.next_value + 1`
	if tx.Dialector.Name() == "mysql" {
		upsert = `INSERT INTO invoice_sequences (company_id, next_value)
		 VALUES (?, 1)
		 ON DUPLICATE KEY UPDATE next_value = next_value + 1`
	}
	err := tx.WithContext(ctx).Exec(upsert, companyID).Error
	if err != nil {
		return 0, err
	}

	var next int64
	err = tx.WithContext(ctx).Raw(
		`SELECT next_value FROM invoice_sequences WHERE company_id = ?`,
		companyID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func scopedQuery(stmt *gorm.DB, scope domain.Scope) *gorm.DB {
	if scope.Admin {
		return stmt.Where("company_id = ?", scope.CompanyID)
	}
	return stmt.Where("created_by = ? OR customer_id = ?", scope.UserID, scope.UserID)
}
