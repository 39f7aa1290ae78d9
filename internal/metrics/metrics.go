package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultNoop  = "noop"
)

// カタログ取得とカート操作の計測。
// nilのままでも呼べる（テストや計測なしの構成用）
type Metrics struct {
	fetchTotal    *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	products      prometheus.Gauge
	cartOps       *prometheus.CounterVec
}

// regがnilなら何も登録しない
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	fetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_total",
		Help: "Remote catalog fetches by result.",
	}, []string{"result"})
	fetchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fetch_duration_seconds",
		Help:    "Duration of remote catalog fetch and persist in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_products",
		Help: "Products in the local catalog cache after the last write.",
	})
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})

	reg.MustRegister(fetchTotal, fetchDuration, products, cartOps)
	return &Metrics{
		fetchTotal:    fetchTotal,
		fetchDuration: fetchDuration,
		products:      products,
		cartOps:       cartOps,
	}
}

func (m *Metrics) ObserveFetch(result string, d time.Duration) {
	if m == nil || m.fetchTotal == nil {
		return
	}
	m.fetchTotal.WithLabelValues(normalizeLabel(result)).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) SetProducts(n int) {
	if m == nil || m.products == nil {
		return
	}
	m.products.Set(float64(n))
}

func (m *Metrics) IncCartOp(op, result string) {
	if m == nil || m.cartOps == nil {
		return
	}
	m.cartOps.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
