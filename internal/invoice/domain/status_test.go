package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []InvoiceStatus{InvoiceStatusPending, InvoiceStatusConfirmed, InvoiceStatusPaid, InvoiceStatusCancelled} {
		require.True(t, ValidStatus(s))
	}
	require.False(t, ValidStatus("DRAFT"))
	require.False(t, ValidStatus(""))
	require.False(t, ValidStatus("paid"))
}

func TestPaidIsTerminal(t *testing.T) {
	require.False(t, InvoiceStatusPaid.CanUpdateContent())
	require.False(t, InvoiceStatusPaid.CanDelete())
	require.False(t, InvoiceStatusPaid.CanApplyPayment())

	for _, next := range []InvoiceStatus{InvoiceStatusPending, InvoiceStatusConfirmed, InvoiceStatusCancelled} {
		require.False(t, InvoiceStatusPaid.CanTransitionTo(next))
	}
}

func TestTransitionsCannotTargetPaid(t *testing.T) {
	for _, from := range []InvoiceStatus{InvoiceStatusPending, InvoiceStatusConfirmed, InvoiceStatusCancelled} {
		require.False(t, from.CanTransitionTo(InvoiceStatusPaid))
	}
}

func TestNonPaidTransitions(t *testing.T) {
	require.True(t, InvoiceStatusPending.CanTransitionTo(InvoiceStatusConfirmed))
	require.True(t, InvoiceStatusConfirmed.CanTransitionTo(InvoiceStatusCancelled))
	require.True(t, InvoiceStatusCancelled.CanTransitionTo(InvoiceStatusPending))
	require.False(t, InvoiceStatusPending.CanTransitionTo("DRAFT"))

	require.True(t, InvoiceStatusPending.CanUpdateContent())
	require.True(t, InvoiceStatusConfirmed.CanApplyPayment())
	require.True(t, InvoiceStatusCancelled.CanDelete())
}
