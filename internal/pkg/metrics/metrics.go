package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Payments holds the purchase pipeline collectors. A nil *Payments is a no-op.
type Payments struct {
	CheckoutSessions *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	TokensCredited   *prometheus.CounterVec
}

// NewPayments registers the collectors on reg
func NewPayments(reg prometheus.Registerer) *Payments {
	m := &Payments{
		CheckoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions by provider and result.",
		}, []string{"provider", "result"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by provider and handling outcome.",
		}, []string{"provider", "outcome"}),
		TokensCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billing",
			Name:      "tokens_credited_total",
			Help:      "Tokens credited to balances by provider.",
		}, []string{"provider"}),
	}
	reg.MustRegister(m.CheckoutSessions, m.WebhookEvents, m.TokensCredited)
	return m
}

func (m *Payments) Checkout(provider, result string) {
	if m == nil {
		return
	}
	m.CheckoutSessions.WithLabelValues(provider, result).Inc()
}

func (m *Payments) Webhook(provider, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *Payments) Credited(provider string, tokens int64) {
	if m == nil || tokens <= 0 {
		return
	}
	m.TokensCredited.WithLabelValues(provider).Add(float64(tokens))
}

// NewRegistry returns a registry with Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus text format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
