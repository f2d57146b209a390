package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"wats-sdk/internal/report"
	"wats-sdk/internal/util"
)

const (
	wsjfPath    = "/api/Report/WSJF"
	wsjfGetPath = "/api/Report/Wsjf/"
)

// ReportService 提交和读取 WSJF 报告
type ReportService struct {
	http   HTTPClient
	logger *slog.Logger
}

// Submit 序列化报告并提交；以相同 id 再次提交会覆盖服务端已有的报告
func (s *ReportService) Submit(ctx context.Context, r report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.SubmitRaw(ctx, data)
}

// SubmitRaw 提交已经序列化好的 WSJF 报告
func (s *ReportService) SubmitRaw(ctx context.Context, payload []byte) error {
	logger := s.logger
	if traceID, ok := util.TraceIDFromContext(ctx); ok {
		logger = logger.With("trace_id", traceID)
	}
	resp, err := s.http.Post(ctx, wsjfPath, nil, json.RawMessage(payload))
	if err != nil {
		return err
	}
	if err := check(http.MethodPost, wsjfPath, resp); err != nil {
		logger.Warn("报告被服务端拒绝", "status", resp.StatusCode)
		return err
	}
	logger.Info("报告已提交")
	return nil
}

// Get 按 id 读取报告，返回的 UUT 步骤树处于 import 模式
func (s *ReportService) Get(ctx context.Context, id string) (report.Report, error) {
	path := wsjfGetPath + url.PathEscape(id)
	resp, err := s.http.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if err := check(http.MethodGet, path, resp); err != nil {
		return nil, err
	}
	return report.Decode(resp.Body)
}
