package step

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// passThrough 没有测量值的步骤：状态不会被重新计算，只有预先标记为失败时才向上传播
func passThrough(c *Common) []string {
	c.settle(c.Status)
	return nil
}

// GenericStep 流程控制等没有测量值的步骤 (If/Else/Wait/Label...)
// 与其他类型不同，stepType 保留原始取值
type GenericStep struct {
	Common
}

func (s *GenericStep) Validate() []string { return passThrough(&s.Common) }

func (s GenericStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	if c.Type == "" {
		c.Type = TypeGeneric
	}
	return json.Marshal(c)
}

func (s *GenericStep) UnmarshalJSON(data []byte) error {
	var c Common
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	s.Common.assign(c)
	return nil
}

// ActionStep 执行动作但不产生测量值的步骤
type ActionStep struct {
	Common
}

func (s *ActionStep) Validate() []string { return passThrough(&s.Common) }

func (s ActionStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypeAction
	return json.Marshal(c)
}

func (s *ActionStep) UnmarshalJSON(data []byte) error {
	var c Common
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	s.Common.assign(c)
	s.Type = TypeAction
	return nil
}

// Chart 图表数据，随 ChartStep 一起上传
type Chart struct {
	ChartType string   `json:"chartType"` // Line, LineLogX, LineLogY, LineLogXY
	Label     string   `json:"label,omitempty"`
	XLabel    string   `json:"xLabel,omitempty"`
	XUnit     string   `json:"xUnit,omitempty"`
	YLabel    string   `json:"yLabel,omitempty"`
	YUnit     string   `json:"yUnit,omitempty"`
	Series    []Series `json:"series"`
}

// Series 一条曲线，坐标以 ";" 分隔的字符串上传
type Series struct {
	DataType string `json:"dataType,omitempty"`
	Name     string `json:"name"`
	XData    string `json:"xdata,omitempty"`
	YData    string `json:"ydata"`
}

// NewSeries 由坐标数组构造曲线，x 为空时只上传 y
func NewSeries(name string, x, y []float64) Series {
	s := Series{DataType: "XYG", Name: name, YData: joinFloats(y)}
	if len(x) > 0 {
		s.XData = joinFloats(x)
	}
	return s
}

// Points 解析曲线坐标
func (s Series) Points() (x, y []float64, err error) {
	if x, err = splitFloats(s.XData); err != nil {
		return nil, nil, fmt.Errorf("series %q xdata: %w", s.Name, err)
	}
	if y, err = splitFloats(s.YData); err != nil {
		return nil, nil, fmt.Errorf("series %q ydata: %w", s.Name, err)
	}
	return x, y, nil
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

func splitFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ChartStep 只携带图表数据的步骤
type ChartStep struct {
	Common
	Chart Chart
}

func (s *ChartStep) Validate() []string { return passThrough(&s.Common) }

func (s ChartStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypeChart
	return json.Marshal(struct {
		Common
		Chart Chart `json:"chart"`
	}{c, s.Chart})
}

func (s *ChartStep) UnmarshalJSON(data []byte) error {
	var w struct {
		Common
		Chart Chart `json:"chart"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Common.assign(w.Common)
	s.Type = TypeChart
	s.Chart = w.Chart
	return nil
}
