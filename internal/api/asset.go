package api

import (
	"context"
	"net/url"
)

// Asset 测试设备 (仪表、夹具等)
type Asset struct {
	SerialNumber       string `json:"serialNumber"`
	AssetName          string `json:"assetName,omitempty"`
	TypeID             string `json:"typeId,omitempty"`
	ParentSerialNumber string `json:"parentSerialNumber,omitempty"`
	Location           string `json:"location,omitempty"`
	State              int    `json:"state"`
	RunningCount       int    `json:"runningCount"`
	TotalCount         int    `json:"totalCount"`
}

// AssetService 读写设备信息
type AssetService struct {
	http HTTPClient
}

func (s *AssetService) Get(ctx context.Context, serialNumber string) (*Asset, error) {
	var a Asset
	if err := getJSON(ctx, s.http, "/api/Asset", url.Values{"serialNumber": {serialNumber}}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AssetService) Put(ctx context.Context, a *Asset) (*Asset, error) {
	var out Asset
	if err := putJSON(ctx, s.http, "/api/Asset", a, &out); err != nil {
		return nil, err
	}
	if out.SerialNumber == "" {
		out = *a
	}
	return &out, nil
}
