package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(paymentsTotal, paymentChecksTotal) }

var paymentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment requests by outcome (created/confirmed/completed/expired/failed).",
	},
	[]string{"status"},
)

var paymentChecksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_status_checks_total",
		Help: "Provider status polls, labeled by result ('ok' or 'error').",
	},
	[]string{"result"},
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncPaymentCheck(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	paymentChecksTotal.WithLabelValues(result).Inc()
}
