package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ConverterMetrics aggregates the conversion pipeline counters exposed on the
// node's metrics endpoint.
type ConverterMetrics struct {
	conversions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	feeTotal    prometheus.Counter
	tradeHops   prometheus.Histogram
}

var (
	converterOnce     sync.Once
	converterRegistry *ConverterMetrics
)

// Converter returns the process-wide converter metrics, registering them on
// first use.
func Converter() *ConverterMetrics {
	converterOnce.Do(func() {
		converterRegistry = &ConverterMetrics{
			conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "converter_conversions_total",
				Help: "Count of priced hops by pricing branch.",
			}, []string{"branch"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "converter_failures_total",
				Help: "Count of rejected trades by reason.",
			}, []string{"reason"}),
			feeTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "converter_fees_total",
				Help: "Cumulative conversion fees charged, in destination token units.",
			}),
			tradeHops: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "converter_trade_hops",
				Help:    "Hop count distribution of committed trades.",
				Buckets: prometheus.LinearBuckets(1, 1, 8),
			}),
		}
		prometheus.MustRegister(
			converterRegistry.conversions,
			converterRegistry.failures,
			converterRegistry.feeTotal,
			converterRegistry.tradeHops,
		)
	})
	return converterRegistry
}

// ObserveConversion records one priced hop and its charged fee.
func (m *ConverterMetrics) ObserveConversion(branch string, fee float64) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(branch).Inc()
	if fee > 0 {
		m.feeTotal.Add(fee)
	}
}

// ObserveTrade records a fully committed trade.
func (m *ConverterMetrics) ObserveTrade(hops int) {
	if m == nil {
		return
	}
	m.tradeHops.Observe(float64(hops))
}

// ObserveFailure records a rejected trade.
func (m *ConverterMetrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}
