package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the invoicing engine.
type Metrics struct {
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	invoicesCreated *prometheus.CounterVec
	paymentsApplied *prometheus.CounterVec
	invoiceAmount   *prometheus.HistogramVec
	paymentAmount   *prometheus.HistogramVec
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_api_requests_total",
		Help: "Counts API requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicer_api_duration_seconds",
		Help:    "API request latency per method/route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	invoicesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_invoices_created_total",
		Help: "Counts invoices created by status.",
	}, []string{"status"})

	paymentsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_payments_applied_total",
		Help: "Counts applied payments by method.",
	}, []string{"method"})

	paymentAmount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicer_payment_amount",
		Help:    "Distribution of applied payment amounts by method.",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	}, []string{"method"})

	invoiceAmount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicer_invoice_amount",
		Help:    "Distribution of invoice totals at creation.",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	}, []string{"status"})

	prometheus.MustRegister(apiRequests, apiDuration, invoicesCreated, paymentsApplied, invoiceAmount, paymentAmount)

	return &Metrics{
		apiRequests:     apiRequests,
		apiDuration:     apiDuration,
		invoicesCreated: invoicesCreated,
		paymentsApplied: paymentsApplied,
		invoiceAmount:   invoiceAmount,
		paymentAmount:   paymentAmount,
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordInvoiceCreated(status string, total float64) {
	if m == nil {
		return
	}
	m.invoicesCreated.WithLabelValues(status).Inc()
	m.invoiceAmount.WithLabelValues(status).Observe(total)
}

func (m *Metrics) RecordPaymentApplied(method string, amount float64) {
	if m == nil {
		return
	}
	m.paymentsApplied.WithLabelValues(method).Inc()
	m.paymentAmount.WithLabelValues(method).Observe(amount)
}
