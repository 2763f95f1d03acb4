package domain

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusConfirmed InvoiceStatus = "CONFIRMED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusConfirmed, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// CanUpdateContent reports whether line items, rates, and dates may still change.
// PAID is terminal for content.
func (s InvoiceStatus) CanUpdateContent() bool {
	return s != InvoiceStatusPaid
}

// CanDelete reports whether the invoice may be removed.
func (s InvoiceStatus) CanDelete() bool {
	return s != InvoiceStatusPaid
}

// CanTransitionTo reports whether a status-only transition from s to next is
// legal. PAID is reachable only through payment application, and nothing
// transitions away from PAID.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if !ValidStatus(next) {
		return false
	}
	if s == InvoiceStatusPaid {
		return false
	}
	return next != InvoiceStatusPaid
}

// CanApplyPayment reports whether a payment may move the invoice to PAID.
func (s InvoiceStatus) CanApplyPayment() bool {
	return s != InvoiceStatusPaid
}
