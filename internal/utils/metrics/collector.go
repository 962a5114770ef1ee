// internal/utils/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "solana_observer"

// Collector держит все метрики процесса. Методы безопасны для nil-получателя,
// поэтому компоненты в тестах создаются без коллектора.
type Collector struct {
	rpcRequests   *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	cacheRequests *prometheus.CounterVec
	curveGaps     prometheus.Counter
	ledgerAppends *prometheus.CounterVec
}

// NewCollector создает коллектор и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_requests_total",
				Help:      "Adapter calls by method and outcome (ok or error kind)",
			},
			[]string{"method", "outcome"},
		),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "Adapter call latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"method"},
		),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups by call kind and result (hit, miss, error)",
			},
			[]string{"kind", "result"},
		),
		curveGaps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "curve_gaps_total",
				Help:      "Curve samples reported as unavailable",
			},
		),
		ledgerAppends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_appends_total",
				Help:      "Earnings entries appended by source",
			},
			[]string{"source"},
		),
	}

	if reg != nil {
		reg.MustRegister(c.rpcRequests, c.rpcLatency, c.cacheRequests, c.curveGaps, c.ledgerAppends)
	}
	return c
}

// RecordRPC записывает вызов адаптера
func (c *Collector) RecordRPC(method, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.rpcRequests.WithLabelValues(method, outcome).Inc()
	c.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCache записывает результат обращения к кэшу
func (c *Collector) RecordCache(kind, result string) {
	if c == nil {
		return
	}
	c.cacheRequests.WithLabelValues(kind, result).Inc()
}

// RecordCurveGap отмечает пропуск в кривой цены
func (c *Collector) RecordCurveGap() {
	if c == nil {
		return
	}
	c.curveGaps.Inc()
}

// RecordLedgerAppend отмечает новую запись в журнале доходов
func (c *Collector) RecordLedgerAppend(source string) {
	if c == nil {
		return
	}
	c.ledgerAppends.WithLabelValues(source).Inc()
}
