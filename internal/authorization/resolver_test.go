package authorization

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
	"github.com/stretchr/testify/require"
)

func TestResolverAccessMatrix(t *testing.T) {
	company := snowflake.ID(100)
	otherCompany := snowflake.ID(200)

	creator := identitydomain.Actor{UserID: 1, CompanyID: company, Role: identitydomain.RoleCustomer}
	billed := identitydomain.Actor{UserID: 2, CompanyID: company, Role: identitydomain.RoleCustomer}
	admin := identitydomain.Actor{UserID: 3, CompanyID: company, Role: identitydomain.RoleAdmin}
	foreignAdmin := identitydomain.Actor{UserID: 4, CompanyID: otherCompany, Role: identitydomain.RoleAdmin}
	bystander := identitydomain.Actor{UserID: 5, CompanyID: company, Role: identitydomain.RoleCustomer}

	invoice := &invoicedomain.Invoice{
		ID:         snowflake.ID(10),
		CompanyID:  company,
		CreatedBy:  creator.UserID,
		CustomerID: billed.UserID,
	}

	cases := []struct {
		name  string
		actor identitydomain.Actor
		read  bool
		write bool
	}{
		{"creator", creator, true, true},
		{"billed customer", billed, true, false},
		{"company admin", admin, true, false},
		{"admin of another company", foreignAdmin, false, false},
		{"unrelated user", bystander, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.read, CanRead(tc.actor, invoice))
			require.Equal(t, tc.write, CanWrite(tc.actor, invoice))
			require.Equal(t, tc.read, CanDownload(tc.actor, invoice))
		})
	}
}

func TestResolverNilInvoice(t *testing.T) {
	actor := identitydomain.Actor{UserID: 1, Role: identitydomain.RoleAdmin}
	require.False(t, CanRead(actor, nil))
	require.False(t, CanWrite(actor, nil))
	require.False(t, CanDownload(actor, nil))
}
