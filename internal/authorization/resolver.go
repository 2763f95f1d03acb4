package authorization

import (
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
)

// CanRead reports whether the actor may see the invoice: the creator, the
// billed customer, and any admin of the invoice's company.
func CanRead(actor identitydomain.Actor, invoice *invoicedomain.Invoice) bool {
	if invoice == nil {
		return false
	}
	if invoice.CreatedBy == actor.UserID {
		return true
	}
	if invoice.CustomerID == actor.UserID {
		return true
	}
	return actor.IsAdmin() && invoice.CompanyID == actor.CompanyID
}

// CanWrite reports whether the actor may mutate the invoice. Write access
// belongs to the creator alone; company admins get read visibility but must
// act through the original creator's identity for mutation.
func CanWrite(actor identitydomain.Actor, invoice *invoicedomain.Invoice) bool {
	if invoice == nil {
		return false
	}
	return invoice.CreatedBy == actor.UserID
}

// CanDownload follows the broadened read rule.
func CanDownload(actor identitydomain.Actor, invoice *invoicedomain.Invoice) bool {
	return CanRead(actor, invoice)
}
