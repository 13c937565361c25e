package database

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "bookshelf"
	subsystem = "db_pool"
)

// metricsCollector exposes pool usage as Prometheus metrics.
type metricsCollector struct {
	labels prometheus.Labels
	pool   Pool
}

// NewMetricsCollector returns a collector reading pool.Stats on every scrape.
func NewMetricsCollector(name string, pool Pool) prometheus.Collector {
	return &metricsCollector{
		pool: pool,
		labels: prometheus.Labels{
			"name":   name,
			"driver": string(pool.Dialect()),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stats()

	gauge := func(name, help string, v int64) {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, c.labels),
			prometheus.GaugeValue,
			float64(v),
		)
	}

	counter := func(name, help string, v int64) {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, c.labels),
			prometheus.CounterValue,
			float64(v),
		)
	}

	gauge("max_conns", "The maximum number of connections the pool may open.", stats.MaxConns)
	gauge("open", "The number of established connections both in use and idle.", stats.TotalConns)
	gauge("in_use", "The number of connections currently checked out.", stats.InUse)
	gauge("idle", "The number of idle connections.", stats.Idle)
	counter("waits_total", "The number of acquires that had to wait for a connection.", stats.WaitCount)
	counter("acquires_total", "The number of successful acquires.", stats.AcquireCount)
}

// check interfaces
var (
	_ prometheus.Collector = (*metricsCollector)(nil)
)
