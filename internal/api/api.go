package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"wats-sdk/internal/transport"
)

// ErrNotFound 服务端返回 404
var ErrNotFound = errors.New("not found")

// HTTPClient 是各服务依赖的传输层，由 transport.Client 实现
type HTTPClient interface {
	Get(ctx context.Context, path string, params url.Values) (*transport.Response, error)
	Post(ctx context.Context, path string, params url.Values, body any) (*transport.Response, error)
	Put(ctx context.Context, path string, params url.Values, body any) (*transport.Response, error)
	Delete(ctx context.Context, path string, params url.Values) (*transport.Response, error)
}

// StatusError 服务端返回了非 2xx 状态码
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client 汇总所有 REST 服务
type Client struct {
	Reports    *ReportService
	Products   *ProductService
	Assets     *AssetService
	Production *ProductionService
}

// New 创建所有服务，共用同一个传输层
func New(c HTTPClient, logger *slog.Logger) *Client {
	logger = logger.With("component", "api")
	return &Client{
		Reports:    &ReportService{http: c, logger: logger},
		Products:   &ProductService{http: c},
		Assets:     &AssetService{http: c},
		Production: &ProductionService{http: c},
	}
}

// check 把非 2xx 的响应转换为 *StatusError
func check(method, path string, resp *transport.Response) error {
	if resp.OK() {
		return nil
	}
	body := string(resp.Body)
	if len(body) > 512 {
		body = body[:512]
	}
	return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: body}
}

// getJSON 发送 GET 请求并把响应解码到 out
func getJSON(ctx context.Context, c HTTPClient, path string, params url.Values, out any) error {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := check(http.MethodGet, path, resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// putJSON 发送 PUT 请求，out 不为 nil 时解码响应
func putJSON(ctx context.Context, c HTTPClient, path string, body, out any) error {
	resp, err := c.Put(ctx, path, nil, body)
	if err != nil {
		return err
	}
	if err := check(http.MethodPut, path, resp); err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
