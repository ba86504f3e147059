package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标管理器。每个实例有独立的 Registry，nil 接收者上的方法不做任何事
type Metrics struct {
	registry *prometheus.Registry

	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 业务指标
	alertsTotal         *prometheus.CounterVec
	assessmentsTotal    *prometheus.CounterVec
	assessmentDuration  *prometheus.HistogramVec
	responsesTotal      *prometheus.CounterVec
	dispatchTotal       *prometheus.CounterVec
	taskTransitions     *prometheus.CounterVec
	ambulancesAvailable prometheus.Gauge
}

// NewMetrics 创建指标管理器
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		alertsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruralcare_alerts_total",
				Help: "Medical alerts raised by community workers",
			},
			[]string{"severity"},
		),
		assessmentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruralcare_assessments_total",
				Help: "Risk assessments by tier and source (llm or fallback)",
			},
			[]string{"risk_level", "source"},
		),
		assessmentDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ruralcare_assessment_duration_seconds",
				Help:    "Time spent classifying an alert",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
		responsesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruralcare_responses_total",
				Help: "Emergency responses by type and whether a doctor and ambulance were bound",
			},
			[]string{"response_type", "doctor", "ambulance"},
		),
		dispatchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruralcare_dispatch_total",
				Help: "Ambulance dispatch attempts",
			},
			[]string{"kind", "outcome"},
		),
		taskTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruralcare_task_transitions_total",
				Help: "Ambulance task status transitions",
			},
			[]string{"status"},
		),
		ambulancesAvailable: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "ruralcare_ambulances_available",
				Help: "Ambulances marked available at the last reconciliation",
			},
		),
	}
}

// Registry 暴露底层 Registry，测试中用 testutil 读取
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAlert 新警报
func (m *Metrics) RecordAlert(severity string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(severity).Inc()
}

// RecordAssessment 一次风险评估
func (m *Metrics) RecordAssessment(riskLevel, source string, duration time.Duration) {
	if m == nil {
		return
	}
	m.assessmentsTotal.WithLabelValues(riskLevel, source).Inc()
	m.assessmentDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordResponse 编排结果
func (m *Metrics) RecordResponse(responseType string, doctor, ambulance bool) {
	if m == nil {
		return
	}
	m.responsesTotal.WithLabelValues(responseType, boolLabel(doctor), boolLabel(ambulance)).Inc()
}

// RecordDispatch kind 为 auto 或 nearest，outcome 为 claimed、exhausted 或 error
func (m *Metrics) RecordDispatch(kind, outcome string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RecordTaskTransition(status string) {
	if m == nil {
		return
	}
	m.taskTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) SetAmbulancesAvailable(n int) {
	if m == nil {
		return
	}
	m.ambulancesAvailable.Set(float64(n))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
