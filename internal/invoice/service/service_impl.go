package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerline/invoicer/internal/actorctx"
	"github.com/ledgerline/invoicer/internal/authorization"
	"github.com/ledgerline/invoicer/internal/clock"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
	"github.com/ledgerline/invoicer/internal/invoice/money"
	"github.com/ledgerline/invoicer/pkg/db/pagination"
	"github.com/ledgerline/invoicer/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Defaults are the billing rates applied when a request omits them.
type Defaults struct {
	TaxRate      float64
	DiscountRate float64
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        invoicedomain.Repository
	AuthzSvc    authorization.Service
	IdentitySvc identitydomain.Service
	Clock       clock.Clock
	Defaults    Defaults
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        invoicedomain.Repository
	authzSvc    authorization.Service
	identitySvc identitydomain.Service
	clock       clock.Clock
	defaults    Defaults
	metrics     *telemetry.Metrics
}

func New(p Params) invoicedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		authzSvc:    p.AuthzSvc,
		identitySvc: p.IdentitySvc,
		clock:       p.Clock,
		defaults:    p.Defaults,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	actor, err := s.actorFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if err := s.authzSvc.Authorize(ctx, actor, authorization.ObjectInvoice, authorization.ActionInvoiceCreate); err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrForbidden
	}

	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrEmptyItems
	}
	if req.DueDate.IsZero() {
		return invoicedomain.Invoice{}, invoicedomain.ErrMissingDueDate
	}

	status := invoicedomain.InvoiceStatusPending
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		status = invoicedomain.InvoiceStatus(trimmed)
		if !invoicedomain.ValidStatus(status) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatus
		}
	}

	customerID := actor.UserID
	if trimmed := strings.TrimSpace(req.Customer); trimmed != "" {
		customer, err := s.identitySvc.GetUser(ctx, trimmed)
		if err != nil {
			return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
		}
		customerID = customer.ID
	}

	taxRate, discountRate := s.resolveRates(req.Tax, req.Discount)
	breakdown := money.Compute(toLines(req.Items), taxRate, discountRate)

	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = s.clock.Now()
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:                  s.genID.Generate(),
		CompanyID:           actor.CompanyID,
		CreatedBy:           actor.UserID,
		CustomerID:          customerID,
		Status:              status,
		InvoiceDate:         invoiceDate,
		DueDate:             req.DueDate,
		Items:               s.buildItems(0, req.Items),
		Subtotal:            breakdown.Subtotal,
		TaxRate:             taxRate,
		TaxAmount:           breakdown.TaxAmount,
		DiscountRate:        discountRate,
		DiscountAmount:      breakdown.DiscountAmount,
		AmountAfterDiscount: breakdown.AmountAfterDiscount,
		TotalAmount:         breakdown.TotalAmount,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.repo.NextSequence(ctx, tx, actor.CompanyID)
		if err != nil {
			return err
		}
		invoice.Sequence = seq
		invoice.InvoiceNumber = fmt.Sprintf("INV-%d", seq)
		return s.repo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.metrics.RecordInvoiceCreated(string(invoice.Status), invoice.TotalAmount)
	s.log.Info("invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("company_id", invoice.CompanyID.String()),
	)

	return invoice, nil
}

func (s *Service) Update(ctx context.Context, id string, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	actor, err := s.actorFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}

	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrEmptyItems
	}

	status := invoicedomain.InvoiceStatusPending
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		status = invoicedomain.InvoiceStatus(trimmed)
		if !invoicedomain.ValidStatus(status) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatus
		}
	}

	existing, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if existing == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	if !authorization.CanWrite(actor, existing) {
		return invoicedomain.Invoice{}, invoicedomain.ErrForbidden
	}
	if !existing.Status.CanUpdateContent() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoicePaid
	}

	customerID := existing.CustomerID
	if trimmed := strings.TrimSpace(req.Customer); trimmed != "" {
		customer, err := s.identitySvc.GetUser(ctx, trimmed)
		if err != nil {
			return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
		}
		customerID = customer.ID
	}

	taxRate, discountRate := s.resolveRates(req.Tax, req.Discount)
	breakdown := money.Compute(toLines(req.Items), taxRate, discountRate)

	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = existing.DueDate
	}
	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = existing.InvoiceDate
	}

	updated := *existing
	updated.CustomerID = customerID
	updated.Status = status
	updated.InvoiceDate = invoiceDate
	updated.DueDate = dueDate
	updated.Items = s.buildItems(existing.ID, req.Items)
	updated.Subtotal = breakdown.Subtotal
	updated.TaxRate = taxRate
	updated.TaxAmount = breakdown.TaxAmount
	updated.DiscountRate = discountRate
	updated.DiscountAmount = breakdown.DiscountAmount
	updated.AmountAfterDiscount = breakdown.AmountAfterDiscount
	updated.TotalAmount = breakdown.TotalAmount
	updated.UpdatedAt = s.clock.Now()

	var replaced bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replaced, err = s.repo.ReplaceContent(ctx, tx, &updated)
		return err
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if !replaced {
		// Lost the race against a concurrent payment.
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoicePaid
	}

	return s.reload(ctx, invoiceID)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (invoicedomain.Invoice, error) {
	actor, err := s.actorFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}

	next := invoicedomain.InvoiceStatus(strings.TrimSpace(status))
	if !invoicedomain.ValidStatus(next) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatus
	}

	existing, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if existing == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	if !authorization.CanWrite(actor, existing) {
		return invoicedomain.Invoice{}, invoicedomain.ErrForbidden
	}
	if !existing.Status.CanTransitionTo(next) {
		if existing.Status == invoicedomain.InvoiceStatusPaid {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoicePaid
		}
		// PAID is only reachable through payment application.
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatus
	}

	changed, err := s.repo.UpdateStatus(ctx, s.db, invoiceID, next)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if !changed {
		// A concurrent payment raced the transition check.
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoicePaid
	}

	return s.reload(ctx, invoiceID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	actor, err := s.actorFromContext(ctx)
	if err != nil {
		return err
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.ErrNotFound
	}

	existing, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return err
	}
	if existing == nil {
		return invoicedomain.ErrNotFound
	}
	if !authorization.CanWrite(actor, existing) {
		return invoicedomain.ErrForbidden
	}
	if !existing.Status.CanDelete() {
		return invoicedomain.ErrInvoicePaid
	}

	deleted, err := s.repo.DeleteUnpaid(ctx, s.db, invoiceID)
	if err != nil {
		return err
	}
	if !deleted {
		return invoicedomain.ErrInvoicePaid
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.GetInvoiceResponse, error) {
	actor, err := s.actorFromContext(ctx)
	if err != nil {
		return invoicedomain.GetInvoiceResponse{}, err
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.GetInvoiceResponse{}, invoicedomain.ErrNotFound
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.GetInvoiceResponse{}, err
	}
	if invoice == nil {
		return invoicedomain.GetInvoiceResponse{}, invoicedomain.ErrNotFound
	}
	if !authorization.CanRead(actor, invoice) {
		return invoicedomain.GetInvoiceResponse{}, invoicedomain.ErrForbidden
	}

	resp := invoicedomain.GetInvoiceResponse{Invoice: *invoice}
	if company, err := s.identitySvc.GetCompany(ctx, invoice.CompanyID.String()); err == nil {
		resp.Company = &company
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	actor, err := s.actorFromContext(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	var status invoicedomain.InvoiceStatus
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" && trimmed != "null" {
		status = invoicedomain.InvoiceStatus(trimmed)
		if !invoicedomain.ValidStatus(status) {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
		}
	}

	scope := invoicedomain.Scope{
		CompanyID: actor.CompanyID,
		UserID:    actor.UserID,
		Admin:     actor.IsAdmin(),
	}

	invoices, totalItems, err := s.repo.List(ctx, s.db, scope, status, req.Pagination)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	// Summary covers the full scope, not the filtered page.
	summary, err := s.repo.Summarize(ctx, s.db, scope, s.clock.Now())
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	return invoicedomain.ListInvoiceResponse{
		Data:       invoices,
		Pagination: pagination.BuildPageInfo(req.Pagination, totalItems),
		Summary:    summary,
	}, nil
}

func (s *Service) Download(ctx context.Context, id string) (invoicedomain.DownloadData, error) {
	actor, err := s.actorFromContext(ctx)
	if err != nil {
		return invoicedomain.DownloadData{}, err
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.DownloadData{}, invoicedomain.ErrNotFound
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.DownloadData{}, err
	}
	if invoice == nil {
		return invoicedomain.DownloadData{}, invoicedomain.ErrNotFound
	}
	if !authorization.CanDownload(actor, invoice) {
		return invoicedomain.DownloadData{}, invoicedomain.ErrForbidden
	}

	company, err := s.identitySvc.GetCompany(ctx, invoice.CompanyID.String())
	if err != nil {
		return invoicedomain.DownloadData{}, err
	}

	data := invoicedomain.DownloadData{Invoice: *invoice, Company: company}
	if invoice.Customer != nil {
		data.Customer = *invoice.Customer
	}
	return data, nil
}

func (s *Service) actorFromContext(ctx context.Context) (identitydomain.Actor, error) {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok {
		return identitydomain.Actor{}, invoicedomain.ErrUnknownActor
	}
	return actor, nil
}

func (s *Service) resolveRates(tax, discount *float64) (taxRate float64, discountRate float64) {
	taxRate = s.defaults.TaxRate
	if tax != nil {
		taxRate = *tax
	}
	discountRate = s.defaults.DiscountRate
	if discount != nil {
		discountRate = *discount
	}
	return taxRate, discountRate
}

func (s *Service) buildItems(invoiceID snowflake.ID, inputs []invoicedomain.ItemInput) []invoicedomain.InvoiceItem {
	now := s.clock.Now()
	items := make([]invoicedomain.InvoiceItem, 0, len(inputs))
	for _, input := range inputs {
		line := money.Line{Quantity: input.Quantity, Rate: input.Rate}
		items = append(items, invoicedomain.InvoiceItem{
			ID:        s.genID.Generate(),
			InvoiceID: invoiceID,
			Name:      strings.TrimSpace(input.Name),
			Quantity:  input.Quantity,
			Rate:      input.Rate,
			Amount:    money.LineAmount(line),
			CreatedAt: now,
		})
	}
	return items
}

func (s *Service) reload(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return *invoice, nil
}

func toLines(inputs []invoicedomain.ItemInput) []money.Line {
	lines := make([]money.Line, 0, len(inputs))
	for _, input := range inputs {
		lines = append(lines, money.Line{Quantity: input.Quantity, Rate: input.Rate})
	}
	return lines
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}
