package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	"github.com/ledgerline/invoicer/pkg/db/pagination"
)

// ItemInput is a caller-supplied line item. Quantity and rate default to zero
// when absent or invalid; amounts are always engine-computed.
type ItemInput struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Rate     float64 `json:"rate"`
}

type CreateInvoiceRequest struct {
	Customer    string      `json:"customer"`
	Items       []ItemInput `json:"items"`
	InvoiceDate time.Time   `json:"invoiceDate"`
	DueDate     time.Time   `json:"dueDate"`
	Status      string      `json:"status"`
	// Discount and Tax are rate percentages; nil means "use the configured default".
	Discount *float64 `json:"discount"`
	Tax      *float64 `json:"tax"`
}

type UpdateInvoiceRequest struct {
	Customer    string      `json:"customer"`
	Items       []ItemInput `json:"items"`
	InvoiceDate time.Time   `json:"invoiceDate"`
	DueDate     time.Time   `json:"dueDate"`
	Status      string      `json:"status"`
	Discount    *float64    `json:"discount"`
	Tax         *float64    `json:"tax"`
}

type ListInvoiceRequest struct {
	pagination.Pagination
	Status string `form:"status"`
}

// Summary aggregates amounts over the actor's full scope, independent of any
// status filter applied to the page.
type Summary struct {
	TotalInvoices   int64   `json:"totalInvoices"`
	TotalAmount     float64 `json:"totalAmount"`
	PaidAmount      float64 `json:"paidAmount"`
	PendingAmount   float64 `json:"pendingAmount"`
	ConfirmedAmount float64 `json:"confirmedAmount"`
	OverdueCount    int64   `json:"overdueCount"`
}

type ListInvoiceResponse struct {
	Data       []Invoice           `json:"data"`
	Pagination pagination.PageInfo `json:"pagination"`
	Summary    Summary             `json:"summary"`
}

type GetInvoiceResponse struct {
	Invoice Invoice                 `json:"invoice"`
	Company *identitydomain.Company `json:"company,omitempty"`
}

// DownloadData is the fully computed, authorized snapshot handed to the
// document renderer.
type DownloadData struct {
	Invoice  Invoice
	Company  identitydomain.Company
	Customer identitydomain.User
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (Invoice, error)
	UpdateStatus(ctx context.Context, id string, status string) (Invoice, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (GetInvoiceResponse, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Download(ctx context.Context, id string) (DownloadData, error)
}

var (
	ErrNotFound       = errors.New("invoice_not_found")
	ErrForbidden      = errors.New("invoice_forbidden")
	ErrEmptyItems     = errors.New("empty_items")
	ErrMissingDueDate = errors.New("missing_due_date")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrInvalidID      = errors.New("invalid_invoice_id")
	// ErrInvoicePaid guards content mutation and deletion of PAID invoices.
	ErrInvoicePaid  = errors.New("invoice_paid")
	ErrUnknownActor = errors.New("unknown_actor")
)
