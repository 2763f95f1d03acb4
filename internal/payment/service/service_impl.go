package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerline/invoicer/internal/actorctx"
	"github.com/ledgerline/invoicer/internal/authorization"
	"github.com/ledgerline/invoicer/internal/clock"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
	"github.com/ledgerline/invoicer/internal/payment/domain"
	"github.com/ledgerline/invoicer/internal/ratelimit"
	"github.com/ledgerline/invoicer/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const minCardDigits = 13

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	InvoiceRepo invoicedomain.Repository
	AuthzSvc    authorization.Service
	Clock       clock.Clock
	Locker      *ratelimit.Locker  `optional:"true"`
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	invoiceRepo invoicedomain.Repository
	authzSvc    authorization.Service
	clock       clock.Clock
	locker      *ratelimit.Locker
	metrics     *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		invoiceRepo: p.InvoiceRepo,
		authzSvc:    p.AuthzSvc,
		clock:       p.Clock,
		locker:      p.Locker,
		metrics:     p.Metrics,
	}
}

func (s *Service) ApplyCard(ctx context.Context, req domain.ApplyCardRequest) (domain.ApplyResponse, error) {
	if err := validateCard(req.CardDetails); err != nil {
		return domain.ApplyResponse{}, err
	}

	detail := maskedDetail(map[string]string{
		"cardHolder": strings.TrimSpace(req.CardHolder),
		"last4":      lastDigits(req.CardNumber, 4),
	})
	transactionID := fmt.Sprintf("TXN-CARD-%s", s.genID.Generate())

	return s.apply(ctx, req.InvoiceID, domain.MethodCard, transactionID, detail)
}

func (s *Service) ApplyQR(ctx context.Context, req domain.ApplyQRRequest) (domain.ApplyResponse, error) {
	if strings.TrimSpace(req.QRData) == "" {
		return domain.ApplyResponse{}, domain.ErrInvalidQR
	}

	detail := maskedDetail(map[string]string{
		"qrDataLength": fmt.Sprintf("%d", len(req.QRData)),
	})
	transactionID := fmt.Sprintf("TXN-QR-%s", s.genID.Generate())

	return s.apply(ctx, req.InvoiceID, domain.MethodQR, transactionID, detail)
}

func (s *Service) GetStatus(ctx context.Context, invoiceID string) (domain.StatusResponse, error) {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok {
		return domain.StatusResponse{}, invoicedomain.ErrUnknownActor
	}

	invoice, err := s.findInvoice(ctx, actor, invoiceID, authorization.ActionPaymentView)
	if err != nil {
		return domain.StatusResponse{}, err
	}

	return domain.StatusResponse{
		InvoiceID:   invoice.ID.String(),
		Status:      string(invoice.Status),
		IsPaid:      invoice.Status == invoicedomain.InvoiceStatusPaid,
		TotalAmount: invoice.TotalAmount,
	}, nil
}

// apply flips the invoice to PAID and writes the ledger row in one
// transaction. The conditional update is the double-payment guard.
func (s *Service) apply(ctx context.Context, rawID string, method domain.Method, transactionID string, detail json.RawMessage) (domain.ApplyResponse, error) {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok {
		return domain.ApplyResponse{}, invoicedomain.ErrUnknownActor
	}

	invoice, err := s.findInvoice(ctx, actor, rawID, authorization.ActionPaymentApply)
	if err != nil {
		return domain.ApplyResponse{}, err
	}
	// Paying an invoice mutates it; read visibility is not enough.
	if !authorization.CanWrite(actor, invoice) {
		return domain.ApplyResponse{}, invoicedomain.ErrForbidden
	}
	if !invoice.Status.CanApplyPayment() {
		return domain.ApplyResponse{}, domain.ErrAlreadyPaid
	}

	// Best-effort per-invoice lock; the conditional update below remains
	// the authoritative guard.
	if s.locker != nil {
		lockKey := fmt.Sprintf("payments:lock:invoice:%s", invoice.ID)
		if token, locked, err := s.locker.TryLock(ctx, lockKey, 10*time.Second); err == nil {
			if !locked {
				return domain.ApplyResponse{}, domain.ErrAlreadyPaid
			}
			defer func() {
				_ = s.locker.Release(context.WithoutCancel(ctx), lockKey, token)
			}()
		}
	}

	paidAt := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped, err := s.invoiceRepo.MarkPaid(ctx, tx, invoice.ID, string(method), transactionID, invoice.TotalAmount, paidAt)
		if err != nil {
			return err
		}
		if !flipped {
			return domain.ErrAlreadyPaid
		}

		ledger := domain.Payment{
			ID:            s.genID.Generate(),
			InvoiceID:     invoice.ID,
			CompanyID:     invoice.CompanyID,
			PaidBy:        actor.UserID,
			Method:        method,
			TransactionID: transactionID,
			Amount:        invoice.TotalAmount,
			Status:        domain.StatusSucceeded,
			Detail:        datatypes.JSON(detail),
			CreatedAt:     paidAt,
		}
		return tx.Create(&ledger).Error
	})
	if err != nil {
		return domain.ApplyResponse{}, err
	}

	s.metrics.RecordPaymentApplied(string(method), invoice.TotalAmount)
	s.log.Info("payment applied",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("transaction_id", transactionID),
		zap.String("method", string(method)),
	)

	paid, err := s.invoiceRepo.FindByID(ctx, s.db, invoice.ID)
	if err != nil {
		return domain.ApplyResponse{}, err
	}

	return domain.ApplyResponse{
		InvoiceID:     invoice.ID.String(),
		TransactionID: transactionID,
		Method:        method,
		Amount:        invoice.TotalAmount,
		Status:        domain.StatusSucceeded,
		Invoice:       *paid,
	}, nil
}

func (s *Service) findInvoice(ctx context.Context, actor identitydomain.Actor, rawID string, action string) (*invoicedomain.Invoice, error) {
	if err := s.authzSvc.Authorize(ctx, actor, authorization.ObjectPayment, action); err != nil {
		return nil, invoicedomain.ErrForbidden
	}

	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, invoicedomain.ErrNotFound
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}
	if !authorization.CanRead(actor, invoice) {
		return nil, invoicedomain.ErrForbidden
	}
	return invoice, nil
}

func validateCard(details domain.CardDetails) error {
	if len(digitsOf(details.CardNumber)) < minCardDigits {
		return domain.ErrInvalidCard
	}
	if strings.TrimSpace(details.CardHolder) == "" {
		return domain.ErrInvalidCard
	}
	if strings.TrimSpace(details.Expiry) == "" {
		return domain.ErrInvalidCard
	}
	if len(digitsOf(details.CVV)) < 3 {
		return domain.ErrInvalidCard
	}
	return nil
}

func digitsOf(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lastDigits(raw string, n int) string {
	digits := digitsOf(raw)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

func maskedDetail(fields map[string]string) json.RawMessage {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return raw
}
