package metrics

import (
	"math/big"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"accrue/accrual"
)

// Collector holds the prometheus instruments for the ledger.
type Collector struct {
	registry            *prometheus.Registry
	operationsProcessed *prometheus.CounterVec
	operationsFailed    *prometheus.CounterVec
	interestSettled     prometheus.Counter
	totalSupply         prometheus.Gauge
	globalRate          prometheus.Gauge
}

// NewCollector creates a new metrics collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		operationsProcessed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of processed ledger operations",
		}, []string{"operation"}),
		operationsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_failed_total",
			Help: "Total number of failed ledger operations",
		}, []string{"operation"}),
		interestSettled: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_interest_settled_tokens_total",
			Help: "Total interest folded into principal, in whole tokens",
		}),
		totalSupply: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "ledger_total_supply_tokens",
			Help: "Total stored principal, in whole tokens",
		}),
		globalRate: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "ledger_global_rate",
			Help: "Current system-wide accrual rate (fixed-point per second)",
		}),
	}
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveOperation counts a completed ledger operation.
func (c *Collector) ObserveOperation(operation string, err error) {
	c.operationsProcessed.WithLabelValues(operation).Inc()
	if err != nil {
		c.operationsFailed.WithLabelValues(operation).Inc()
	}
}

// AddInterestSettled accumulates settled interest.
func (c *Collector) AddInterestSettled(interest *big.Int) {
	c.interestSettled.Add(tokens(interest))
}

// AddSupply adjusts the supply gauge by delta (may be negative).
func (c *Collector) AddSupply(delta *big.Int) {
	c.totalSupply.Add(tokens(delta))
}

// SetSupply overwrites the supply gauge.
func (c *Collector) SetSupply(supply *big.Int) {
	c.totalSupply.Set(tokens(supply))
}

// SetGlobalRate overwrites the global rate gauge.
func (c *Collector) SetGlobalRate(rate *big.Int) {
	f, _ := new(big.Float).SetInt(rate).Float64()
	c.globalRate.Set(f)
}

// tokens converts a fixed-point 1e18 value to whole tokens for gauges.
// Precision loss is fine here; these are operational metrics, not ledger
// state.
func tokens(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	f.Quo(f, new(big.Float).SetInt(accrual.Precision))
	out, _ := f.Float64()
	return out
}
