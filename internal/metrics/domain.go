package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "登录尝试次数，按结果区分。",
		},
		[]string{"result"},
	)

	mediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "媒体上传次数，按类型与结果区分。",
		},
		[]string{"kind", "result"},
	)

	mediaUploadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "upload_bytes",
			Help:      "成功转发的文件大小分布。",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 6),
		},
		[]string{"kind"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "发布的内容变更事件数量。",
		},
		[]string{"type", "result"},
	)
)

// Login results.
const (
	LoginSuccess   = "success"
	LoginFailure   = "failure"
	LoginThrottled = "throttled"
)

// ObserveLogin 记录一次登录尝试。
func ObserveLogin(result string) {
	register()
	loginAttempts.WithLabelValues(result).Inc()
}

// ObserveUpload 记录一次上传；size 仅在成功时计入分布。
func ObserveUpload(kind string, size int, err error) {
	register()
	if err != nil {
		mediaUploads.WithLabelValues(kind, "rejected").Inc()
		return
	}
	mediaUploads.WithLabelValues(kind, "ok").Inc()
	mediaUploadBytes.WithLabelValues(kind).Observe(float64(size))
}

// ObservePublish 记录一次事件发布。
func ObservePublish(eventType string, err error) {
	register()
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsPublished.WithLabelValues(eventType, result).Inc()
}
