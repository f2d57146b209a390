package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wats-sdk/internal/util"
)

// Response 一次 HTTP 调用的结果，Body 已完整读出
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK 判断状态码是否为 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client 通过 HTTP 调用 WATS REST API
type Client struct {
	BaseURL string       // 服务地址 (e.g., https://acme.wats.com)
	Token   string       // API token，按 Basic 方式放在 Authorization 头中
	HTTP    *http.Client // HTTP 客户端
	logger  *slog.Logger // 日志记录器
}

// New 创建一个新的客户端实例
func New(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "transport"),
	}
}

func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, params, nil)
}

func (c *Client) Post(ctx context.Context, path string, params url.Values, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, params, body)
}

func (c *Client) Put(ctx context.Context, path string, params url.Values, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, params, body)
}

func (c *Client) Delete(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, params, nil)
}

// Do 发送请求；body 为 []byte 或 json.RawMessage 时原样发送，其他类型序列化为 JSON
// 非 2xx 状态码不视为错误，由调用方根据 Response 判断
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	logger := c.logger.With("method", method, "path", path)
	traceID, hasTrace := util.TraceIDFromContext(ctx)
	if hasTrace {
		logger = logger.With("trace_id", traceID)
	}

	target := c.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case json.RawMessage:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Basic "+c.Token)
	}
	// 将 Trace ID 放入 HTTP Header 中，实现跨服务追踪
	if hasTrace {
		req.Header.Set(util.TraceHeader, traceID)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		logger.Error("远程调用失败", "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("远程调用完成", "status", resp.StatusCode, "duration", time.Since(start).Seconds())
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
