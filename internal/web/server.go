package web

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wats-sdk/internal/queue"
)

// maxReportSize 单份报告请求体的上限，附件以 base64 内嵌在报告中
const maxReportSize = 32 << 20

// Enqueuer 接收 WSJF 报告原文并放入上传队列，由 uploader.Uploader 实现
type Enqueuer interface {
	EnqueueRaw(payload []byte, priority int) (string, error)
}

// NewMux 注册上传服务的 HTTP 接口
//
//	POST /api/reports?priority=N  WSJF 报告入队
//	GET  /api/state               当前队列状态快照
//	GET  /ws                      状态推送
//	GET  /metrics                 Prometheus 指标
func NewMux(q Enqueuer, st *StateTracker, hub *Hub, logger *slog.Logger) *http.ServeMux {
	logger = logger.With("component", "api_server")

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.ServeWs)
	}
	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, st.GetStateSnapshot())
	})
	mux.HandleFunc("POST /api/reports", func(w http.ResponseWriter, r *http.Request) {
		priority := 0
		if v := r.URL.Query().Get("priority"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "invalid priority", http.StatusBadRequest)
				return
			}
			priority = p
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportSize))
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		id, err := q.EnqueueRaw(body, priority)
		if err != nil {
			logger.Warn("拒绝报告", "error", err)
			http.Error(w, err.Error(), intakeStatus(err))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "id": id})
	})
	return mux
}

// intakeStatus 写入离线队列失败属于服务端错误，其余都是报告本身的问题
func intakeStatus(err error) int {
	var pathErr *fs.PathError
	if errors.Is(err, queue.ErrClosed) || errors.As(err, &pathErr) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
