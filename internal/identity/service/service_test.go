package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/ledgerline/invoicer/internal/identity/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Company{}, &domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	svc := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		GenID:      node,
		SessionTTL: time.Hour,
	})
	return svc, conn
}

func register(t *testing.T, svc domain.Service, email string) domain.LoginResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name:        "Jane Doe",
		Email:       email,
		Password:    "s3cret-pass",
		CompanyName: "Acme",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterCreatesCompanyAndAdmin(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	resp := register(t, svc, "jane@acme.test")
	require.NotEmpty(t, resp.Token)
	require.Equal(t, domain.RoleAdmin, resp.User.Role)
	require.NotZero(t, resp.User.CompanyID)

	company, err := svc.GetCompany(ctx, resp.User.CompanyID.String())
	require.NoError(t, err)
	require.Equal(t, "Acme", company.Name)

	var stored domain.User
	require.NoError(t, conn.First(&stored, "id = ?", resp.User.ID).Error)
	require.NotEqual(t, "s3cret-pass", stored.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Name: "X", Email: "not-an-email", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Register(ctx, domain.RegisterRequest{Name: "X", Email: "x@y.test", Password: "short"})
	require.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)

	register(t, svc, "jane@acme.test")

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name:     "Other",
		Email:    "JANE@acme.test",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	registered := register(t, svc, "jane@acme.test")

	resp, err := svc.Login(ctx, domain.LoginRequest{Email: "Jane@Acme.test", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEqual(t, registered.Token, resp.Token)

	actor, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, actor.UserID)
	require.Equal(t, domain.RoleAdmin, actor.Role)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "jane@acme.test", Password: "wrong-pass"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "bogus-token")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp := register(t, svc, "jane@acme.test")
	require.NoError(t, svc.Logout(ctx, resp.Token))

	_, err := svc.Authenticate(ctx, resp.Token)
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestExpiredSession(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	resp := register(t, svc, "jane@acme.test")

	err := conn.Model(&domain.Session{}).
		Where("token = ?", resp.Token).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, resp.Token)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp := register(t, svc, "jane@acme.test")
	actor := domain.Actor{UserID: resp.User.ID, CompanyID: resp.User.CompanyID, Role: resp.User.Role}

	err := svc.ChangePassword(ctx, actor, domain.ChangePasswordRequest{
		CurrentPassword: "wrong-pass",
		NewPassword:     "another-pass",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, actor, domain.ChangePasswordRequest{
		CurrentPassword: "s3cret-pass",
		NewPassword:     "another-pass",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "jane@acme.test", Password: "another-pass"})
	require.NoError(t, err)
}

func TestCustomerManagementIsAdminOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp := register(t, svc, "admin@acme.test")
	admin := domain.Actor{UserID: resp.User.ID, CompanyID: resp.User.CompanyID, Role: domain.RoleAdmin}

	customer, err := svc.CreateCustomer(ctx, admin, domain.CreateCustomerRequest{
		Name:     "Customer",
		Email:    "customer@acme.test",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleCustomer, customer.Role)
	require.Equal(t, admin.CompanyID, customer.CompanyID)

	customers, err := svc.ListCustomers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, customers, 1)

	fetched, err := svc.GetCustomer(ctx, admin, customer.ID.String())
	require.NoError(t, err)
	require.Equal(t, customer.Email, fetched.Email)

	// Admins are not listed as customers of their own company.
	_, err = svc.GetCustomer(ctx, admin, admin.UserID.String())
	require.ErrorIs(t, err, domain.ErrNotFound)

	customerActor := domain.Actor{UserID: customer.ID, CompanyID: customer.CompanyID, Role: domain.RoleCustomer}
	_, err = svc.CreateCustomer(ctx, customerActor, domain.CreateCustomerRequest{
		Name:     "Nope",
		Email:    "nope@acme.test",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListCustomers(ctx, customerActor)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetCustomer(ctx, customerActor, customer.ID.String())
	require.ErrorIs(t, err, domain.ErrForbidden)
}
