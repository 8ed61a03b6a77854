// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// LLMクライアント、食品データベースクライアント、栄養情報サービス、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	RecordGatewayCall(outcome string, duration time.Duration)
	RecordUSDACall(outcome string, duration time.Duration)
	RecordFallback(reason string)
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	gatewayCalls    *prometheus.CounterVec
	gatewayLatency  prometheus.Histogram
	usdaCalls       *prometheus.CounterVec
	usdaLatency     prometheus.Histogram
	fallbacks       *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     prometheus.Histogram
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindfulbite_llm_calls_total",
			Help: "LLM呼び出しの結果別の合計数",
		}, []string{"outcome"}),
		gatewayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mindfulbite_llm_latency_seconds",
			Help:    "LLM呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		usdaCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindfulbite_usda_calls_total",
			Help: "食品データベース検索の結果別の合計数",
		}, []string{"outcome"}),
		usdaLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mindfulbite_usda_latency_seconds",
			Help:    "食品データベース検索のレイテンシ（秒）",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindfulbite_fallback_total",
			Help: "代替食品のフォールバック発生数（理由別）",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindfulbite_http_requests_total",
			Help: "HTTPリクエストのメソッド・ステータスコード別の合計数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mindfulbite_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindfulbite_sessions_cleaned_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.gatewayCalls,
		c.gatewayLatency,
		c.usdaCalls,
		c.usdaLatency,
		c.fallbacks,
		c.httpRequests,
		c.httpLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordGatewayCall はLLM呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordGatewayCall(outcome string, duration time.Duration) {
	c.gatewayCalls.WithLabelValues(outcome).Inc()
	c.gatewayLatency.Observe(duration.Seconds())
}

// RecordUSDACall は食品データベース検索の結果とレイテンシを記録する。
func (c *Collector) RecordUSDACall(outcome string, duration time.Duration) {
	c.usdaCalls.WithLabelValues(outcome).Inc()
	c.usdaLatency.Observe(duration.Seconds())
}

// RecordFallback はフォールバックの発生を記録する。
func (c *Collector) RecordFallback(reason string) {
	c.fallbacks.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest はHTTPリクエストを記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordSessionsCleaned は削除した期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
