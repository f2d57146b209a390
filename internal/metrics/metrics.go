package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 定义 Prometheus 监控指标
var (
	// ReportsInQueue 仪表盘：离线队列中等待上传的报告数量
	ReportsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wats_reports_in_queue",
		Help: "The number of reports waiting in the upload queue",
	})

	// ReportsProcessedTotal 计数器：处理完成的报告总数
	// 按状态 (submitted/failed/skipped) 和报告类型 (T/R) 分类
	ReportsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wats_reports_processed_total",
		Help: "The total number of processed reports",
	}, []string{"status", "type"})

	// SubmitDuration 直方图：单次提交到服务端的耗时
	SubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wats_submit_duration_seconds",
		Help:    "Time spent submitting a report to the server",
		Buckets: prometheus.DefBuckets,
	})
)
