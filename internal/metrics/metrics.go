// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// 上流クライアントと集約サービスから利用する。
type Recorder interface {
	RecordUpstreamSuccess(source string)
	RecordUpstreamFailure(source string)
	RecordUpstreamLatency(source string, duration time.Duration)
	RecordUpstreamStatus(statusCode int)
	RecordCacheHit(client string)
	RecordCacheMiss(client string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamSuccess *prometheus.CounterVec
	upstreamFail    *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	upstreamStatus  *prometheus.CounterVec
	cacheHit        *prometheus.CounterVec
	cacheMiss       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwatch_upstream_success_total",
			Help: "上流ソース取得成功の合計数",
		}, []string{"source"}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwatch_upstream_fail_total",
			Help: "上流ソース取得失敗の合計数",
		}, []string{"source"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epiwatch_upstream_latency_seconds",
			Help:    "上流ソース取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwatch_upstream_status_total",
			Help: "上流HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		cacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwatch_cache_hit_total",
			Help: "クライアント別のキャッシュヒット数",
		}, []string{"client"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwatch_cache_miss_total",
			Help: "クライアント別のキャッシュミス数",
		}, []string{"client"}),
	}

	reg.MustRegister(
		c.upstreamSuccess,
		c.upstreamFail,
		c.upstreamLatency,
		c.upstreamStatus,
		c.cacheHit,
		c.cacheMiss,
	)

	return c
}

// RecordUpstreamSuccess は上流取得成功を記録する。
func (c *Collector) RecordUpstreamSuccess(source string) {
	c.upstreamSuccess.WithLabelValues(source).Inc()
}

// RecordUpstreamFailure は上流取得失敗を記録する。
func (c *Collector) RecordUpstreamFailure(source string) {
	c.upstreamFail.WithLabelValues(source).Inc()
}

// RecordUpstreamLatency は上流取得のレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(source string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordUpstreamStatus は上流HTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit(client string) {
	c.cacheHit.WithLabelValues(client).Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss(client string) {
	c.cacheMiss.WithLabelValues(client).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないRecorder。テストおよび省略時のデフォルト用。
type Nop struct{}

// RecordUpstreamSuccess は何もしない。
func (Nop) RecordUpstreamSuccess(string) {}

// RecordUpstreamFailure は何もしない。
func (Nop) RecordUpstreamFailure(string) {}

// RecordUpstreamLatency は何もしない。
func (Nop) RecordUpstreamLatency(string, time.Duration) {}

// RecordUpstreamStatus は何もしない。
func (Nop) RecordUpstreamStatus(int) {}

// RecordCacheHit は何もしない。
func (Nop) RecordCacheHit(string) {}

// RecordCacheMiss は何もしない。
func (Nop) RecordCacheMiss(string) {}
