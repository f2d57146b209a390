package report

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType 顶层 type 既不是 "T" 也不是 "R"
var ErrUnknownType = errors.New("unknown report type")

// Decode 按顶层 type 字段解码 WSJF 报告
// UUT 的步骤树处于 import 模式，状态按原样保留
func Decode(data []byte) (Report, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	var r Report
	switch head.Type {
	case TypeUUT:
		r = &UUTReport{}
	case TypeUUR:
		r = &UURReport{}
	default:
		return nil, fmt.Errorf("decode report type %q: %w", head.Type, ErrUnknownType)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

// Summary 报告的扁平摘要，供提交规则、事件和界面使用
type Summary struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`
	PN          string `json:"pn" yaml:"pn"`
	SN          string `json:"sn" yaml:"sn"`
	Rev         string `json:"rev" yaml:"rev"`
	ProcessCode int    `json:"processCode" yaml:"processCode"`
	Result      string `json:"result" yaml:"result"`
	Station     string `json:"station,omitempty" yaml:"station,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Purpose     string `json:"purpose,omitempty" yaml:"purpose,omitempty"`

	Steps       int `json:"steps" yaml:"steps"`
	FailedSteps int `json:"failedSteps" yaml:"failedSteps"`
	Failures    int `json:"failures" yaml:"failures"`
}

// Summarize 生成报告摘要
func Summarize(r Report) Summary {
	h := r.Head()
	s := Summary{
		ID:          h.ID.String(),
		Type:        h.Type,
		PN:          h.PN,
		SN:          h.SN,
		Rev:         h.Rev,
		ProcessCode: h.ProcessCode,
		Result:      string(h.Result),
		Station:     h.MachineName,
		Location:    h.Location,
		Purpose:     h.Purpose,
	}
	switch v := r.(type) {
	case *UUTReport:
		s.Result = string(v.result())
		root := v.Root()
		s.Steps = root.CountSteps(true)
		for range root.FailedSteps(true) {
			s.FailedSteps++
		}
	case *UURReport:
		s.Failures = v.FailureCount()
	}
	return s
}

// FailedStepPaths 返回 UUT 报告中所有失败步骤的路径
func FailedStepPaths(r *UUTReport) []string {
	var paths []string
	for s := range r.Root().FailedSteps(true) {
		paths = append(paths, s.Info().Path())
	}
	return paths
}
