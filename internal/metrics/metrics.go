// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordSessionStarted()
	RecordSessionStopped()
	RecordCycleAdvanced(count int)
	RecordTweetCreated()
	RecordTweetDeleted()
	RecordHTTPStatus(statusCode int)
	IncSSESubscribers()
	DecSSESubscribers()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sessionStarted prometheus.Counter
	sessionStopped prometheus.Counter
	cycleAdvanced  prometheus.Counter
	tweetCreated   prometheus.Counter
	tweetDeleted   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	sseSubscribers prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweettimer_session_started_total",
			Help: "ライティングセッション開始の合計数",
		}),
		sessionStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweettimer_session_stopped_total",
			Help: "ライティングセッション停止の合計数",
		}),
		cycleAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweettimer_cycle_advanced_total",
			Help: "進行したサイクル数の合計",
		}),
		tweetCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweettimer_tweet_created_total",
			Help: "作成されたツイートの合計数",
		}),
		tweetDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweettimer_tweet_deleted_total",
			Help: "削除されたツイートの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweettimer_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sseSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tweettimer_sse_subscribers",
			Help: "現在接続中のSSE購読者数",
		}),
	}

	reg.MustRegister(
		c.sessionStarted,
		c.sessionStopped,
		c.cycleAdvanced,
		c.tweetCreated,
		c.tweetDeleted,
		c.httpStatus,
		c.sseSubscribers,
	)

	return c
}

// RecordSessionStarted はセッション開始を記録する。
func (c *Collector) RecordSessionStarted() {
	c.sessionStarted.Inc()
}

// RecordSessionStopped はセッション停止を記録する。
func (c *Collector) RecordSessionStopped() {
	c.sessionStopped.Inc()
}

// RecordCycleAdvanced は進行したサイクル数を記録する。
func (c *Collector) RecordCycleAdvanced(count int) {
	c.cycleAdvanced.Add(float64(count))
}

// RecordTweetCreated はツイート作成を記録する。
func (c *Collector) RecordTweetCreated() {
	c.tweetCreated.Inc()
}

// RecordTweetDeleted はツイート削除を記録する。
func (c *Collector) RecordTweetDeleted() {
	c.tweetDeleted.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// IncSSESubscribers はSSE購読者数を増やす。
func (c *Collector) IncSSESubscribers() {
	c.sseSubscribers.Inc()
}

// DecSSESubscribers はSSE購読者数を減らす。
func (c *Collector) DecSSESubscribers() {
	c.sseSubscribers.Dec()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
