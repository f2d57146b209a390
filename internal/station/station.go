package station

import (
	"os"

	"wats-sdk/internal/config"
	"wats-sdk/internal/report"
)

// Station 描述提交报告的测试工站
type Station struct {
	Name     string
	Location string
	Purpose  string
}

// New 根据配置创建工站描述；未配置名称时使用主机名
func New(cfg config.Station) Station {
	s := Station{Name: cfg.Name, Location: cfg.Location, Purpose: cfg.Purpose}
	if s.Name == "" {
		if host, err := os.Hostname(); err == nil {
			s.Name = host
		}
	}
	return s
}

// Params 返回带有工站信息的报告参数
func (s Station) Params(p report.Params) report.Params {
	if p.StationName == "" {
		p.StationName = s.Name
	}
	if p.Location == "" {
		p.Location = s.Location
	}
	if p.Purpose == "" {
		p.Purpose = s.Purpose
	}
	return p
}

// Fill 补全报告头中为空的工站字段，已有的值保持不变
func (s Station) Fill(h *report.Header) {
	if h.MachineName == "" {
		h.MachineName = s.Name
	}
	if h.Location == "" {
		h.Location = s.Location
	}
	if h.Purpose == "" {
		h.Purpose = s.Purpose
	}
}
