package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
)

type CardDetails struct {
	CardNumber string `json:"cardNumber"`
	CardHolder string `json:"cardHolder"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

type QRDetails struct {
	QRData string `json:"qrData"`
}

type ApplyCardRequest struct {
	InvoiceID string `json:"invoiceId"`
	CardDetails
}

type ApplyQRRequest struct {
	InvoiceID string `json:"invoiceId"`
	QRDetails
}

// ApplyResponse reports the outcome of a successful payment application.
// Invoice is the post-payment snapshot, reloaded after the flip.
type ApplyResponse struct {
	InvoiceID     string                `json:"invoiceId"`
	TransactionID string                `json:"transactionId"`
	Method        Method                `json:"method"`
	Amount        float64               `json:"amount"`
	Status        string                `json:"status"`
	Invoice       invoicedomain.Invoice `json:"invoice"`
}

type StatusResponse struct {
	InvoiceID   string  `json:"invoiceId"`
	Status      string  `json:"status"`
	IsPaid      bool    `json:"isPaid"`
	TotalAmount float64 `json:"totalAmount"`
}

type Service interface {
	ApplyCard(ctx context.Context, req ApplyCardRequest) (ApplyResponse, error)
	ApplyQR(ctx context.Context, req ApplyQRRequest) (ApplyResponse, error)
	GetStatus(ctx context.Context, invoiceID string) (StatusResponse, error)
}

var (
	ErrAlreadyPaid = errors.New("invoice_already_paid")
	ErrInvalidCard = errors.New("invalid_card_details")
	ErrInvalidQR   = errors.New("invalid_qr_details")
)
