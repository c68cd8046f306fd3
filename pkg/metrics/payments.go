package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics tracks order and payment lifecycle counters.
type PaymentMetrics struct {
	ordersCreated     *prometheus.CounterVec
	paymentsCaptured  prometheus.Counter
	paymentsFailed    prometheus.Counter
	refundsIssued     prometheus.Counter
	webhookDuplicates prometheus.Counter
	checkoutDuration  prometheus.Histogram
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created at checkout, labelled by payment mode.",
	}, []string{"mode"})
	paymentsCaptured := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_captured_total",
		Help: "Payments confirmed via webhook, redirect verify, or manual review.",
	})
	paymentsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Payment attempts reported failed by the gateway.",
	})
	refundsIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refunds_issued_total",
		Help: "Refunds issued for cancelled paid orders.",
	})
	webhookDuplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_duplicates_total",
		Help: "Gateway webhook deliveries skipped as already processed.",
	})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of the checkout transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersCreated, paymentsCaptured, paymentsFailed, refundsIssued, webhookDuplicates, checkoutDuration)
	return &PaymentMetrics{
		ordersCreated:     ordersCreated,
		paymentsCaptured:  paymentsCaptured,
		paymentsFailed:    paymentsFailed,
		refundsIssued:     refundsIssued,
		webhookDuplicates: webhookDuplicates,
		checkoutDuration:  checkoutDuration,
	}
}

// IncOrderCreated counts a checkout completion for the given payment mode.
func (m *PaymentMetrics) IncOrderCreated(mode string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	if mode == "" {
		mode = "unknown"
	}
	m.ordersCreated.WithLabelValues(mode).Inc()
}

// IncPaymentCaptured counts a confirmed payment.
func (m *PaymentMetrics) IncPaymentCaptured() {
	if m == nil || m.paymentsCaptured == nil {
		return
	}
	m.paymentsCaptured.Inc()
}

// IncPaymentFailed counts a failed payment attempt.
func (m *PaymentMetrics) IncPaymentFailed() {
	if m == nil || m.paymentsFailed == nil {
		return
	}
	m.paymentsFailed.Inc()
}

// IncRefundIssued counts an issued refund.
func (m *PaymentMetrics) IncRefundIssued() {
	if m == nil || m.refundsIssued == nil {
		return
	}
	m.refundsIssued.Inc()
}

// IncWebhookDuplicate counts a webhook delivery skipped as a replay.
func (m *PaymentMetrics) IncWebhookDuplicate() {
	if m == nil || m.webhookDuplicates == nil {
		return
	}
	m.webhookDuplicates.Inc()
}

// ObserveCheckoutDuration records how long the checkout transaction took.
func (m *PaymentMetrics) ObserveCheckoutDuration(d time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.Observe(d.Seconds())
}
