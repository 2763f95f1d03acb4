package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/ledgerline/invoicer/internal/actorctx"
	clockpkg "github.com/ledgerline/invoicer/internal/clock"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
	invoicerepo "github.com/ledgerline/invoicer/internal/invoice/repository"
	paymentdomain "github.com/ledgerline/invoicer/internal/payment/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type allowAllAuthz struct{}

func (allowAllAuthz) Authorize(context.Context, identitydomain.Actor, string, string) error {
	return nil
}

// dbIdentity serves user and company lookups straight from the test
// database; the full identity service is exercised in its own package.
type dbIdentity struct {
	db *gorm.DB
}

func (s dbIdentity) Register(context.Context, identitydomain.RegisterRequest) (identitydomain.LoginResponse, error) {
	return identitydomain.LoginResponse{}, identitydomain.ErrInvalidRequest
}

func (s dbIdentity) Login(context.Context, identitydomain.LoginRequest) (identitydomain.LoginResponse, error) {
	return identitydomain.LoginResponse{}, identitydomain.ErrInvalidCredentials
}

func (s dbIdentity) Logout(context.Context, string) error { return nil }

func (s dbIdentity) Authenticate(context.Context, string) (identitydomain.Actor, error) {
	return identitydomain.Actor{}, identitydomain.ErrSessionExpired
}

func (s dbIdentity) GetUser(ctx context.Context, id string) (identitydomain.User, error) {
	var user identitydomain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return identitydomain.User{}, identitydomain.ErrNotFound
	}
	return user, nil
}

func (s dbIdentity) GetCompany(ctx context.Context, id string) (identitydomain.Company, error) {
	var company identitydomain.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return identitydomain.Company{}, identitydomain.ErrNotFound
	}
	return company, nil
}

func (s dbIdentity) ChangePassword(context.Context, identitydomain.Actor, identitydomain.ChangePasswordRequest) error {
	return nil
}

func (s dbIdentity) CreateCustomer(context.Context, identitydomain.Actor, identitydomain.CreateCustomerRequest) (identitydomain.User, error) {
	return identitydomain.User{}, identitydomain.ErrInvalidRequest
}

func (s dbIdentity) GetCustomer(ctx context.Context, _ identitydomain.Actor, id string) (identitydomain.User, error) {
	return s.GetUser(ctx, id)
}

func (s dbIdentity) ListCustomers(context.Context, identitydomain.Actor) ([]identitydomain.User, error) {
	return nil, nil
}

type fixture struct {
	db    *gorm.DB
	svc   invoicedomain.Service
	clock *clockpkg.FakeClock

	admin    identitydomain.Actor
	customer identitydomain.Actor
	stranger identitydomain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&identitydomain.Company{},
		&identitydomain.User{},
		&identitydomain.Session{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.InvoiceSequence{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fake := clockpkg.NewFakeClock(now)

	companyA := identitydomain.Company{ID: node.Generate(), Name: "Acme", Email: "billing@acme.test"}
	companyB := identitydomain.Company{ID: node.Generate(), Name: "Rival", Email: "billing@rival.test"}
	require.NoError(t, conn.Create(&companyA).Error)
	require.NoError(t, conn.Create(&companyB).Error)

	admin := identitydomain.User{ID: node.Generate(), CompanyID: companyA.ID, Role: identitydomain.RoleAdmin, Name: "Admin", Email: "admin@acme.test", PasswordHash: "x"}
	customer := identitydomain.User{ID: node.Generate(), CompanyID: companyA.ID, Role: identitydomain.RoleCustomer, Name: "Customer", Email: "customer@acme.test", PasswordHash: "x"}
	stranger := identitydomain.User{ID: node.Generate(), CompanyID: companyB.ID, Role: identitydomain.RoleCustomer, Name: "Stranger", Email: "stranger@rival.test", PasswordHash: "x"}
	require.NoError(t, conn.Create(&admin).Error)
	require.NoError(t, conn.Create(&customer).Error)
	require.NoError(t, conn.Create(&stranger).Error)

	svc := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        invoicerepo.Provide(),
		AuthzSvc:    allowAllAuthz{},
		IdentitySvc: dbIdentity{db: conn},
		Clock:       fake,
		Defaults:    Defaults{TaxRate: 18, DiscountRate: 0},
	})

	return &fixture{
		db:       conn,
		svc:      svc,
		clock:    fake,
		admin:    identitydomain.Actor{UserID: admin.ID, CompanyID: companyA.ID, Role: identitydomain.RoleAdmin},
		customer: identitydomain.Actor{UserID: customer.ID, CompanyID: companyA.ID, Role: identitydomain.RoleCustomer},
		stranger: identitydomain.Actor{UserID: stranger.ID, CompanyID: companyB.ID, Role: identitydomain.RoleCustomer},
	}
}

func (f *fixture) ctx(actor identitydomain.Actor) context.Context {
	return actorctx.WithActor(context.Background(), actor)
}

func (f *fixture) createInvoice(t *testing.T, actor identitydomain.Actor, req invoicedomain.CreateInvoiceRequest) invoicedomain.Invoice {
	t.Helper()
	if req.DueDate.IsZero() {
		req.DueDate = f.clock.Now().Add(14 * 24 * time.Hour)
	}
	if len(req.Items) == 0 {
		req.Items = []invoicedomain.ItemInput{{Name: "Consulting", Quantity: 2, Rate: 100}}
	}
	invoice, err := f.svc.Create(f.ctx(actor), req)
	require.NoError(t, err)
	return invoice
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateComputesBreakdown(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.ItemInput{
			{Name: "Design", Quantity: 2, Rate: 100},
			{Name: "Hosting", Quantity: 1, Rate: 50},
		},
		Discount: floatPtr(10),
		Tax:      floatPtr(18),
	})

	require.Equal(t, 250.0, invoice.Subtotal)
	require.Equal(t, 25.0, invoice.DiscountAmount)
	require.Equal(t, 225.0, invoice.AmountAfterDiscount)
	require.Equal(t, 40.50, invoice.TaxAmount)
	require.Equal(t, 265.50, invoice.TotalAmount)
	require.Equal(t, invoicedomain.InvoiceStatusPending, invoice.Status)
	require.Equal(t, "INV-1", invoice.InvoiceNumber)
	require.Len(t, invoice.Items, 2)
	require.Equal(t, 200.0, invoice.Items[0].Amount)
}

func TestCreateAppliesConfiguredDefaults(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.ItemInput{{Name: "Support", Quantity: 1, Rate: 100}},
	})

	require.Equal(t, 18.0, invoice.TaxRate)
	require.Equal(t, 0.0, invoice.DiscountRate)
	require.Equal(t, 118.0, invoice.TotalAmount)
}

func TestCreateSequencesArePerCompany(t *testing.T) {
	f := newFixture(t)

	first := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	second := f.createInvoice(t, f.admin, invoicedomain.CreateInvoiceRequest{})
	other := f.createInvoice(t, f.stranger, invoicedomain.CreateInvoiceRequest{})

	require.Equal(t, "INV-1", first.InvoiceNumber)
	require.Equal(t, "INV-2", second.InvoiceNumber)
	require.Equal(t, "INV-1", other.InvoiceNumber)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx(f.customer), invoicedomain.CreateInvoiceRequest{
		DueDate: f.clock.Now().Add(24 * time.Hour),
	})
	require.ErrorIs(t, err, invoicedomain.ErrEmptyItems)

	_, err = f.svc.Create(f.ctx(f.customer), invoicedomain.CreateInvoiceRequest{
		Items: []invoicedomain.ItemInput{{Name: "X", Quantity: 1, Rate: 1}},
	})
	require.ErrorIs(t, err, invoicedomain.ErrMissingDueDate)

	_, err = f.svc.Create(f.ctx(f.customer), invoicedomain.CreateInvoiceRequest{
		Items:   []invoicedomain.ItemInput{{Name: "X", Quantity: 1, Rate: 1}},
		DueDate: f.clock.Now().Add(24 * time.Hour),
		Status:  "BOGUS",
	})
	require.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)

	_, err = f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		Items:   []invoicedomain.ItemInput{{Name: "X", Quantity: 1, Rate: 1}},
		DueDate: f.clock.Now().Add(24 * time.Hour),
	})
	require.ErrorIs(t, err, invoicedomain.ErrUnknownActor)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})

	updated, err := f.svc.Update(f.ctx(f.customer), invoice.ID.String(), invoicedomain.UpdateInvoiceRequest{
		Items:    []invoicedomain.ItemInput{{Name: "Design", Quantity: 3, Rate: 150}},
		Discount: floatPtr(0),
		Tax:      floatPtr(10),
	})
	require.NoError(t, err)
	require.Equal(t, 450.0, updated.Subtotal)
	require.Equal(t, 495.0, updated.TotalAmount)
	require.Len(t, updated.Items, 1)
	require.Equal(t, invoice.InvoiceNumber, updated.InvoiceNumber)
}

func TestUpdateRejectedForNonCreator(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})

	// Admins can read everything in the company but never edit on behalf
	// of the creator.
	_, err := f.svc.Update(f.ctx(f.admin), invoice.ID.String(), invoicedomain.UpdateInvoiceRequest{
		Items: []invoicedomain.ItemInput{{Name: "X", Quantity: 1, Rate: 1}},
	})
	require.ErrorIs(t, err, invoicedomain.ErrForbidden)

	_, err = f.svc.Update(f.ctx(f.stranger), invoice.ID.String(), invoicedomain.UpdateInvoiceRequest{
		Items: []invoicedomain.ItemInput{{Name: "X", Quantity: 1, Rate: 1}},
	})
	require.ErrorIs(t, err, invoicedomain.ErrForbidden)
}

func TestPaidInvoiceIsImmutable(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	markPaid(t, f.db, invoice.ID)

	_, err := f.svc.Update(f.ctx(f.customer), invoice.ID.String(), invoicedomain.UpdateInvoiceRequest{
		Items: []invoicedomain.ItemInput{{Name: "X", Quantity: 1, Rate: 1}},
	})
	require.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)

	err = f.svc.Delete(f.ctx(f.customer), invoice.ID.String())
	require.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)

	_, err = f.svc.UpdateStatus(f.ctx(f.customer), invoice.ID.String(), "PENDING")
	require.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)
}

func TestUpdateStatusCannotTargetPaid(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})

	_, err := f.svc.UpdateStatus(f.ctx(f.customer), invoice.ID.String(), "PAID")
	require.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)

	updated, err := f.svc.UpdateStatus(f.ctx(f.customer), invoice.ID.String(), "CONFIRMED")
	require.NoError(t, err)
	require.Equal(t, invoicedomain.InvoiceStatusConfirmed, updated.Status)
}

func TestPaidStatusGuardHoldsAtWrite(t *testing.T) {
	f := newFixture(t)
	repo := invoicerepo.Provide()

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	markPaid(t, f.db, invoice.ID)

	// A write that raced past the transition check still cannot un-pay.
	changed, err := repo.UpdateStatus(context.Background(), f.db, invoice.ID, invoicedomain.InvoiceStatusPending)
	require.NoError(t, err)
	require.False(t, changed)

	var stored invoicedomain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	require.Equal(t, invoicedomain.InvoiceStatusPaid, stored.Status)

	unpaid := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	changed, err = repo.UpdateStatus(context.Background(), f.db, unpaid.ID, invoicedomain.InvoiceStatusConfirmed)
	require.NoError(t, err)
	require.True(t, changed)
}

func TestDeleteRemovesInvoiceAndItems(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	require.NoError(t, f.svc.Delete(f.ctx(f.customer), invoice.ID.String()))

	_, err := f.svc.GetByID(f.ctx(f.customer), invoice.ID.String())
	require.ErrorIs(t, err, invoicedomain.ErrNotFound)

	var itemCount int64
	require.NoError(t, f.db.Model(&invoicedomain.InvoiceItem{}).Where("invoice_id = ?", invoice.ID).Count(&itemCount).Error)
	require.Zero(t, itemCount)
}

func TestGetByIDScoping(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})

	resp, err := f.svc.GetByID(f.ctx(f.customer), invoice.ID.String())
	require.NoError(t, err)
	require.Equal(t, invoice.ID, resp.Invoice.ID)
	require.NotNil(t, resp.Company)
	require.Equal(t, "Acme", resp.Company.Name)

	// Company admins can view invoices they did not create.
	_, err = f.svc.GetByID(f.ctx(f.admin), invoice.ID.String())
	require.NoError(t, err)

	_, err = f.svc.GetByID(f.ctx(f.stranger), invoice.ID.String())
	require.ErrorIs(t, err, invoicedomain.ErrForbidden)

	_, err = f.svc.GetByID(f.ctx(f.customer), "999999999")
	require.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestListPaginationAndSummary(t *testing.T) {
	f := newFixture(t)

	due := f.clock.Now().Add(7 * 24 * time.Hour)
	pending := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{
		Items:   []invoicedomain.ItemInput{{Name: "A", Quantity: 1, Rate: 100}},
		DueDate: due,
	})
	paid := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{
		Items:   []invoicedomain.ItemInput{{Name: "B", Quantity: 1, Rate: 200}},
		DueDate: due.Add(-48 * time.Hour),
	})
	markPaid(t, f.db, paid.ID)
	overdue := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{
		Items:   []invoicedomain.ItemInput{{Name: "C", Quantity: 1, Rate: 50}},
		DueDate: f.clock.Now().Add(-24 * time.Hour),
	})

	resp, err := f.svc.List(f.ctx(f.customer), invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 3)

	// Paid invoices sort last regardless of due date.
	require.Equal(t, paid.ID, resp.Data[2].ID)
	require.Equal(t, overdue.ID, resp.Data[0].ID)
	require.Equal(t, pending.ID, resp.Data[1].ID)

	require.Equal(t, int64(3), resp.Pagination.TotalItems)
	require.Equal(t, 1, resp.Pagination.TotalPages)
	require.False(t, resp.Pagination.HasNext)

	require.Equal(t, int64(3), resp.Summary.TotalInvoices)
	require.InDelta(t, 413.0, resp.Summary.TotalAmount, 0.001)
	require.InDelta(t, 236.0, resp.Summary.PaidAmount, 0.001)
	require.Equal(t, int64(1), resp.Summary.OverdueCount)
}

func TestListStatusFilterKeepsFullSummary(t *testing.T) {
	f := newFixture(t)

	f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	paid := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	markPaid(t, f.db, paid.ID)

	resp, err := f.svc.List(f.ctx(f.customer), invoicedomain.ListInvoiceRequest{Status: "PAID"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	require.Equal(t, int64(1), resp.Pagination.TotalItems)
	// Summary ignores the page filter.
	require.Equal(t, int64(2), resp.Summary.TotalInvoices)

	_, err = f.svc.List(f.ctx(f.customer), invoicedomain.ListInvoiceRequest{Status: "BOGUS"})
	require.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t)

	mine := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})
	f.createInvoice(t, f.admin, invoicedomain.CreateInvoiceRequest{})

	resp, err := f.svc.List(f.ctx(f.customer), invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	require.Equal(t, mine.ID, resp.Data[0].ID)

	adminResp, err := f.svc.List(f.ctx(f.admin), invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, adminResp.Data, 2)

	strangerResp, err := f.svc.List(f.ctx(f.stranger), invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Empty(t, strangerResp.Data)
}

func TestDownloadReturnsCompanyAndCustomer(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, f.customer, invoicedomain.CreateInvoiceRequest{})

	data, err := f.svc.Download(f.ctx(f.customer), invoice.ID.String())
	require.NoError(t, err)
	require.Equal(t, invoice.ID, data.Invoice.ID)
	require.Equal(t, "Acme", data.Company.Name)
	require.Equal(t, "Customer", data.Customer.Name)

	_, err = f.svc.Download(f.ctx(f.stranger), invoice.ID.String())
	require.ErrorIs(t, err, invoicedomain.ErrForbidden)
}

func markPaid(t *testing.T, conn *gorm.DB, id snowflake.ID) {
	t.Helper()
	err := conn.Exec(
		`UPDATE invoices SET status = ?, paid_at = ?, amount_paid = total_amount WHERE id = ?`,
		invoicedomain.InvoiceStatusPaid,
		time.Now().UTC(),
		id,
	).Error
	require.NoError(t, err)
}
