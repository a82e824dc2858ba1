package fbcore

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "fbcore"

// Metrics is an optional prometheus.Collector tracking statement-cache
// hit/miss/eviction counts, open cursor and active statement gauges,
// and transaction commit/rollback counts across a Connection's
// lifetime. A *Metrics is safe to attach to exactly one Connection via
// WithMetrics and to register with a prometheus.Registerer.
type Metrics struct {
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
	cacheEvictions atomic.Uint64
	commits        atomic.Uint64
	rollbacks      atomic.Uint64
	openCursors    atomic.Int64
	activeStmts    atomic.Int64

	cacheHitsDesc      *prometheus.Desc
	cacheMissesDesc    *prometheus.Desc
	cacheEvictionsDesc *prometheus.Desc
	commitsDesc        *prometheus.Desc
	rollbacksDesc      *prometheus.Desc
	openCursorsDesc    *prometheus.Desc
	activeStmtsDesc    *prometheus.Desc
}

var _ prometheus.Collector = (*Metrics)(nil)

// NewMetrics builds a Metrics collector. dbName labels every exported
// series, mirroring the per-database labeling convention of the
// teacher's prometheus collectors.
func NewMetrics(dbName string) *Metrics {
	labels := prometheus.Labels{"db_name": dbName}
	fqName := func(name string) string { return metricsNamespace + "_" + name }
	return &Metrics{
		cacheHitsDesc:      prometheus.NewDesc(fqName("stmt_cache_hits_total"), "Prepared statement cache hits.", nil, labels),
		cacheMissesDesc:    prometheus.NewDesc(fqName("stmt_cache_misses_total"), "Prepared statement cache misses.", nil, labels),
		cacheEvictionsDesc: prometheus.NewDesc(fqName("stmt_cache_evictions_total"), "Prepared statement cache evictions.", nil, labels),
		commitsDesc:        prometheus.NewDesc(fqName("transactions_committed_total"), "Transactions committed.", nil, labels),
		rollbacksDesc:      prometheus.NewDesc(fqName("transactions_rolled_back_total"), "Transactions rolled back.", nil, labels),
		openCursorsDesc:    prometheus.NewDesc(fqName("open_cursors"), "Currently open cursors.", nil, labels),
		activeStmtsDesc:    prometheus.NewDesc(fqName("active_statements"), "Currently held prepared statements.", nil, labels),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.cacheHitsDesc
	ch <- m.cacheMissesDesc
	ch <- m.cacheEvictionsDesc
	ch <- m.commitsDesc
	ch <- m.rollbacksDesc
	ch <- m.openCursorsDesc
	ch <- m.activeStmtsDesc
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(m.cacheHitsDesc, prometheus.CounterValue, float64(m.cacheHits.Load()))
	ch <- prometheus.MustNewConstMetric(m.cacheMissesDesc, prometheus.CounterValue, float64(m.cacheMisses.Load()))
	ch <- prometheus.MustNewConstMetric(m.cacheEvictionsDesc, prometheus.CounterValue, float64(m.cacheEvictions.Load()))
	ch <- prometheus.MustNewConstMetric(m.commitsDesc, prometheus.CounterValue, float64(m.commits.Load()))
	ch <- prometheus.MustNewConstMetric(m.rollbacksDesc, prometheus.CounterValue, float64(m.rollbacks.Load()))
	ch <- prometheus.MustNewConstMetric(m.openCursorsDesc, prometheus.GaugeValue, float64(m.openCursors.Load()))
	ch <- prometheus.MustNewConstMetric(m.activeStmtsDesc, prometheus.GaugeValue, float64(m.activeStmts.Load()))
}

func (m *Metrics) recordCacheHit()      { m.cacheHits.Add(1) }
func (m *Metrics) recordCacheMiss()     { m.cacheMisses.Add(1) }
func (m *Metrics) recordCacheEviction() { m.cacheEvictions.Add(1) }
func (m *Metrics) recordCommit()        { m.commits.Add(1) }
func (m *Metrics) recordRollback()      { m.rollbacks.Add(1) }
func (m *Metrics) cursorOpened()        { m.openCursors.Add(1) }
func (m *Metrics) cursorClosed()        { m.openCursors.Add(-1) }
func (m *Metrics) stmtPrepared()        { m.activeStmts.Add(1) }
func (m *Metrics) stmtFreed()           { m.activeStmts.Add(-1) }
