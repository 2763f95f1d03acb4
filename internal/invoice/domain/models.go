// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
)

// Invoice represents an issued invoice with engine-computed amounts.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceNumber string        `gorm:"type:text;not null;uniqueIndex:idx_invoices_company_number,priority:2" json:"invoiceNumber"`
	Sequence      int64         `gorm:"not null" json:"-"`
	CompanyID     snowflake.ID  `gorm:"not null;index;uniqueIndex:idx_invoices_company_number,priority:1" json:"companyId"`
	CreatedBy     snowflake.ID  `gorm:"not null;index" json:"createdBy"`
	CustomerID    snowflake.ID  `gorm:"not null;index" json:"customer"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	InvoiceDate   time.Time     `gorm:"not null" json:"invoiceDate"`
	DueDate       time.Time     `gorm:"not null;index" json:"dueDate"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	Subtotal            float64 `gorm:"not null;default:0" json:"subtotal"`
	TaxRate             float64 `gorm:"not null;default:0" json:"taxRatePercent"`
	TaxAmount           float64 `gorm:"not null;default:0" json:"taxAmount"`
	DiscountRate        float64 `gorm:"not null;default:0" json:"discountRatePercent"`
	DiscountAmount      float64 `gorm:"not null;default:0" json:"discountAmount"`
	AmountAfterDiscount float64 `gorm:"not null;default:0" json:"amountAfterDiscount"`
	TotalAmount         float64 `gorm:"not null;default:0" json:"totalAmount"`

	PaymentMethod        *string    `gorm:"type:text" json:"paymentMethod,omitempty"`
	PaymentTransactionID *string    `gorm:"type:text" json:"paymentTransactionId,omitempty"`
	PaidAt               *time.Time `json:"paidAt,omitempty"`
	AmountPaid           *float64   `json:"amountPaid,omitempty"`

	Creator  *identitydomain.User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Customer *identitydomain.User `gorm:"foreignKey:CustomerID" json:"customerDetail,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice.
type InvoiceItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"-"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Quantity  float64      `gorm:"not null;default:0" json:"quantity"`
	Rate      float64      `gorm:"not null;default:0" json:"rate"`
	Amount    float64      `gorm:"not null;default:0" json:"amount"`
	CreatedAt time.Time    `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// InvoiceSequence is the per-company counter backing invoice numbering.
// The row is upsert-incremented inside the create transaction so concurrent
// creates never observe the same value.
type InvoiceSequence struct {
	CompanyID snowflake.ID `gorm:"primaryKey"`
	NextValue int64        `gorm:"not null;default:0"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }
