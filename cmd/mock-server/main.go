package main

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"

	"wats-sdk/internal/report"
	"wats-sdk/internal/util"
)

// main 是模拟 WATS 服务端的入口
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "mock-wats")
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("加载 .env 失败", "error", err)
	}

	addr := os.Getenv("MOCK_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	failureRate := 0.1 // 10% 概率失败
	if v := os.Getenv("MOCK_FAILURE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			logger.Error("MOCK_FAILURE_RATE 必须在 0 到 1 之间", "value", v)
			os.Exit(1)
		}
		failureRate = f
	}

	logger.Info("=== 模拟 WATS 服务启动 ===", "addr", addr, "failure_rate", failureRate)
	s := newServer(failureRate, rand.Float64, logger)
	if err := http.ListenAndServe(addr, s.routes()); err != nil {
		logger.Error("服务启动失败", "error", err)
	}
}

// server 在内存中保存收到的报告
type server struct {
	mu          sync.RWMutex
	reports     map[string][]byte
	failureRate float64
	random      func() float64
	logger      *slog.Logger
}

func newServer(failureRate float64, random func() float64, logger *slog.Logger) *server {
	return &server{
		reports:     make(map[string][]byte),
		failureRate: failureRate,
		random:      random,
		logger:      logger,
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/Report/WSJF", s.storeReport)
	mux.HandleFunc("PUT /api/Report/WSJF", s.storeReport)
	mux.HandleFunc("GET /api/Report/Wsjf/{id}", s.getReport)
	return mux
}

// storeReport 接收 WSJF 报告；相同 id 的报告会被覆盖
func (s *server) storeReport(w http.ResponseWriter, r *http.Request) {
	// 从 HTTP Header 中提取 Trace ID，用于链路追踪
	logger := s.logger
	if traceID := r.Header.Get(util.TraceHeader); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rep, err := report.Decode(body)
	if err != nil {
		logger.Warn("解析报告失败", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rep.Validate(); err != nil {
		logger.Warn("报告校验失败", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 模拟随机故障
	if s.random() < s.failureRate {
		logger.Warn("模拟服务端故障")
		http.Error(w, "simulated server failure", http.StatusServiceUnavailable)
		return
	}

	h := rep.Head()
	id := h.ID.String()
	s.mu.Lock()
	s.reports[id] = body
	s.mu.Unlock()
	logger.Info("接收到报告", "report_id", id, "type", h.Type, "pn", h.PN, "sn", h.SN, "result", h.Result)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"id":"` + id + `"}`))
}

func (s *server) getReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	body, ok := s.reports[r.PathValue("id")]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
