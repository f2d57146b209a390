package api

import (
	"context"
	"net/url"
)

// Product 产品定义
type Product struct {
	PartNumber  string            `json:"partNumber"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	NonSerial   bool              `json:"nonSerial,omitempty"`
	State       int               `json:"state"`
	Revisions   []ProductRevision `json:"revisions,omitempty"`
}

// ProductRevision 产品版本
type ProductRevision struct {
	PartNumber string `json:"partNumber,omitempty"`
	Revision   string `json:"revision"`
	Name       string `json:"name,omitempty"`
	State      int    `json:"state"`
}

// ProductService 读写产品定义
type ProductService struct {
	http HTTPClient
}

func (s *ProductService) Get(ctx context.Context, partNumber string) (*Product, error) {
	var p Product
	if err := getJSON(ctx, s.http, "/api/Product/"+url.PathEscape(partNumber), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Put 创建或更新产品，返回服务端保存后的结果
func (s *ProductService) Put(ctx context.Context, p *Product) (*Product, error) {
	var out Product
	if err := putJSON(ctx, s.http, "/api/Product", p, &out); err != nil {
		return nil, err
	}
	if out.PartNumber == "" {
		out = *p
	}
	return &out, nil
}
