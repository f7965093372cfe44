package hooks

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// MetricsHook records per-query Prometheus metrics. All series carry a
// constant database label so several registered pools can share one
// registry.
type MetricsHook struct {
	queryDuration *prometheus.HistogramVec
	queryTotal    *prometheus.CounterVec
	queryErrors   *prometheus.CounterVec
	queryRows     *prometheus.CounterVec
}

// NewMetricsHook creates a metrics hook for the named database and
// registers its collectors.
func NewMetricsHook(registry prometheus.Registerer, database string) (*MetricsHook, error) {
	labels := prometheus.Labels{"database": database}
	h := &MetricsHook{
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "storekit_query_duration_seconds",
				Help:        "Duration of database queries in seconds",
				ConstLabels: labels,
				Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		queryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "storekit_queries_total",
				Help:        "Total number of database queries",
				ConstLabels: labels,
			},
			[]string{"operation"},
		),
		queryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "storekit_query_errors_total",
				Help:        "Total number of database query errors",
				ConstLabels: labels,
			},
			[]string{"operation"},
		),
		queryRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "storekit_rows_affected_total",
				Help:        "Total number of rows affected by write queries",
				ConstLabels: labels,
			},
			[]string{"operation"},
		),
	}

	collectors := []prometheus.Collector{h.queryDuration, h.queryTotal, h.queryErrors, h.queryRows}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}

	return h, nil
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime).Seconds()
	op := OperationType(event.Query)

	h.queryDuration.WithLabelValues(op).Observe(duration)
	h.queryTotal.WithLabelValues(op).Inc()

	if event.Err != nil {
		h.queryErrors.WithLabelValues(op).Inc()
		return
	}
	if rows, ok := rowsAffected(event); ok {
		h.queryRows.WithLabelValues(op).Add(float64(rows))
	}
}

// PoolCollector exports sql.DBStats connection pool gauges for one
// database. Stats are read at scrape time, not sampled.
type PoolCollector struct {
	stats func() sql.DBStats

	open        *prometheus.Desc
	inUse       *prometheus.Desc
	idle        *prometheus.Desc
	maxOpen     *prometheus.Desc
	waitCount   *prometheus.Desc
	waitSeconds *prometheus.Desc
}

// NewPoolCollector builds a collector over the given stats source,
// typically (*sql.DB).Stats.
func NewPoolCollector(database string, stats func() sql.DBStats) *PoolCollector {
	labels := prometheus.Labels{"database": database}
	return &PoolCollector{
		stats: stats,
		open: prometheus.NewDesc("storekit_pool_open_connections",
			"Open connections, both in use and idle", nil, labels),
		inUse: prometheus.NewDesc("storekit_pool_in_use_connections",
			"Connections currently in use", nil, labels),
		idle: prometheus.NewDesc("storekit_pool_idle_connections",
			"Idle connections", nil, labels),
		maxOpen: prometheus.NewDesc("storekit_pool_max_open_connections",
			"Maximum number of open connections", nil, labels),
		waitCount: prometheus.NewDesc("storekit_pool_wait_count_total",
			"Total number of connections waited for", nil, labels),
		waitSeconds: prometheus.NewDesc("storekit_pool_wait_seconds_total",
			"Total time blocked waiting for a connection", nil, labels),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.maxOpen
	ch <- c.waitCount
	ch <- c.waitSeconds
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(s.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.maxOpen, prometheus.GaugeValue, float64(s.MaxOpenConnections))
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(s.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitSeconds, prometheus.CounterValue, s.WaitDuration.Seconds())
}

// RegisterPoolCollector registers pool gauges for the named database,
// tolerating a collector already registered for it.
func RegisterPoolCollector(registry prometheus.Registerer, database string, stats func() sql.DBStats) error {
	if err := registry.Register(NewPoolCollector(database, stats)); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}
