package handlers

import (
	"log/slog"
	"strings"

	"wats-sdk/internal/event"
	"wats-sdk/internal/metrics"
)

// RegisterEventHandlers 将指标和审计日志处理器注册到事件总线
// UI 状态由上传器的状态机回调同步更新，不经过事件总线
func RegisterEventHandlers(bus *event.Bus, logger *slog.Logger) {
	logger = logger.With("component", "audit")

	// --- 指标处理器 (Metrics Handler) ---
	for _, t := range []event.EventType{event.ReportSubmitted, event.ReportFailed, event.ReportSkipped} {
		status := statusLabel(t)
		bus.Subscribe(t, func(e event.Event) {
			metrics.ReportsProcessedTotal.WithLabelValues(status, e.Summary.Type).Inc()
		})
	}
	// 只统计真正发送到服务端的请求耗时
	observe := func(e event.Event) {
		metrics.SubmitDuration.Observe(e.Duration.Seconds())
	}
	bus.Subscribe(event.ReportSubmitted, observe)
	bus.Subscribe(event.ReportFailed, observe)

	// --- 日志处理器 (Logging Handler) ---
	bus.Subscribe(event.ReportFailed, func(e event.Event) {
		logger.Error("报告提交失败", "report_id", e.ReportID, "trace_id", e.TraceID,
			"pn", e.Summary.PN, "sn", e.Summary.SN, "error", e.Error)
	})
	bus.Subscribe(event.ReportSubmitted, func(e event.Event) {
		logger.Info("报告提交成功", "report_id", e.ReportID, "trace_id", e.TraceID,
			"pn", e.Summary.PN, "sn", e.Summary.SN, "result", e.Summary.Result)
	})
	bus.Subscribe(event.ReportSkipped, func(e event.Event) {
		logger.Info("报告已跳过", "report_id", e.ReportID, "result", e.Summary.Result)
	})
}

// statusLabel ReportSubmitted -> submitted
func statusLabel(t event.EventType) string {
	return strings.ToLower(strings.TrimPrefix(string(t), "Report"))
}
