// Package metrics 审核服务的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// VerdictsTotal 审核结论数，按动作和严重程度区分
	VerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_verdicts_total",
		Help: "Total number of moderation verdicts",
	}, []string{"action", "severity"})

	// FlagsTotal 通过阈值的风险标记数
	FlagsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_flags_total",
		Help: "Total number of flags retained after thresholding",
	}, []string{"type"})

	// DetectorFailures 检测器失败次数
	DetectorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_detector_failures_total",
		Help: "Total number of detector errors or panics",
	}, []string{"detector"})

	// CrisisAlertsTotal 创建的危机警报数
	CrisisAlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_crisis_alerts_total",
		Help: "Total number of crisis alerts created",
	}, []string{"severity"})

	// ModerationLatency 单次审核耗时
	ModerationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderation_latency_seconds",
		Help:    "Moderation latency in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})
)

func init() {
	prometheus.MustRegister(
		VerdictsTotal,
		FlagsTotal,
		DetectorFailures,
		CrisisAlertsTotal,
		ModerationLatency,
	)
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
