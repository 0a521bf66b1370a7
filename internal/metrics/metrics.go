// Package metrics provides Prometheus metrics for entitlement reconciliation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "subs"

// Collector holds all entitlement metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	Validations      *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	Purchases        *prometheus.CounterVec
	PurchaseInFlight prometheus.Gauge
	CacheSelfHeals   prometheus.Counter
	Broadcasts       prometheus.Counter
}

// New registers the collector on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Entitlement validations by resulting source",
			},
			[]string{"source", "valid"},
		),
		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Provider failures by provider and kind",
			},
			[]string{"provider", "kind"},
		),
		Purchases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchases_total",
				Help:      "Purchase attempts by terminal state",
			},
			[]string{"state"},
		),
		PurchaseInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "purchase_in_flight",
				Help:      "1 while a purchase attempt is in flight",
			},
		),
		CacheSelfHeals: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_self_heals_total",
				Help:      "Cached entitlements cleared on read because they had expired",
			},
		),
		Broadcasts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "broadcasts_total",
				Help:      "Entitlement statuses published to subscribers",
			},
		),
	}
}

func (c *Collector) ObserveValidation(source string, valid bool) {
	if c == nil {
		return
	}
	label := "false"
	if valid {
		label = "true"
	}
	c.Validations.WithLabelValues(source, label).Inc()
}

func (c *Collector) ObserveProviderError(provider, kind string) {
	if c == nil {
		return
	}
	c.ProviderErrors.WithLabelValues(provider, kind).Inc()
}

func (c *Collector) ObservePurchase(state string) {
	if c == nil {
		return
	}
	c.Purchases.WithLabelValues(state).Inc()
}

func (c *Collector) SetPurchaseInFlight(inFlight bool) {
	if c == nil {
		return
	}
	if inFlight {
		c.PurchaseInFlight.Set(1)
		return
	}
	c.PurchaseInFlight.Set(0)
}

func (c *Collector) ObserveCacheSelfHeal() {
	if c == nil {
		return
	}
	c.CacheSelfHeals.Inc()
}

func (c *Collector) ObserveBroadcast() {
	if c == nil {
		return
	}
	c.Broadcasts.Inc()
}
