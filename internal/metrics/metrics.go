// Package metrics holds Prometheus instruments that are used across the
// publishing core.  All collectors are registered with the global registry,
// so importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PublishTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publish_total",
			Help: "Cumulative number of posts published.",
		})

	PublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publish_errors_total",
			Help: "Cumulative number of failed publish calls.",
		})

	SlugRetryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "slug_retry_total",
			Help: "Cumulative number of slug candidates regenerated after a collision.",
		})

	SlugFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "slug_fallback_total",
			Help: "Cumulative number of high-entropy fallback slugs issued.",
		})

	AliasReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alias_reconcile_total",
			Help: "Alias reconciliations by outcome mode.",
		},
		[]string{"mode"})

	AliasReconcileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alias_reconcile_errors_total",
			Help: "Cumulative number of failed alias reconciliations.",
		})

	EndpointProbeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "endpoint_probe_total",
			Help: "Cumulative number of endpoint candidates probed.",
		})

	EndpointProbeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "endpoint_probe_failures_total",
			Help: "Cumulative number of endpoint probes that failed.",
		})

	TenantLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_total",
			Help: "Cumulative number of tenants loaded into the cache.",
		})

	TenantLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_errors_total",
			Help: "Cumulative number of failed tenant loads.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenants evicted from the cache.",
		})

	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Tenants currently resident in the cache.",
		})
)

func init() {
	prometheus.MustRegister(
		PublishTotal,
		PublishErrorsTotal,
		SlugRetryTotal,
		SlugFallbackTotal,
		AliasReconcileTotal,
		AliasReconcileErrorsTotal,
		EndpointProbeTotal,
		EndpointProbeFailuresTotal,
		TenantLoadTotal,
		TenantLoadErrorsTotal,
		TenantEvictTotal,
		ActiveTenants,
	)
}
