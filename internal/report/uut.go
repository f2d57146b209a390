package report

import (
	"encoding/json"
	"fmt"
	"time"

	"wats-sdk/internal/step"
	"wats-sdk/internal/types"
)

// RootName 是 UUT 报告根序列的固定名称
const RootName = "MainSequence Callback"

// UUTInfo 测试执行相关信息
type UUTInfo struct {
	Operator        string  `json:"user"`
	Comment         string  `json:"comment,omitempty"`
	ExecTime        float64 `json:"execTime,omitempty"` // 秒
	FixtureID       string  `json:"fixtureId,omitempty"`
	BatchSN         string  `json:"batchSN,omitempty"`
	TestSocketIndex *int    `json:"testSocketIndex,omitempty"`
}

// UUTReport 测试报告，持有一棵以 RootName 为根的步骤树
type UUTReport struct {
	Header
	Info     UUTInfo
	SubUnits []SubUnit

	root *step.SequenceCall
}

var _ Report = (*UUTReport)(nil)

// NewUUT 创建测试报告，身份字段不合法时立即返回错误
func NewUUT(p Params) (*UUTReport, error) {
	r := &UUTReport{
		Header: newHeader(TypeUUT, p),
		root:   step.NewSequenceCall(RootName, step.SequenceInfo{Name: RootName}, p.Mode),
	}
	if err := r.validateIdentity(); err != nil {
		return nil, err
	}
	return r, nil
}

// Root 返回根序列，测试步骤都挂在它下面
func (r *UUTReport) Root() *step.SequenceCall {
	if r.root == nil {
		r.root = step.NewSequenceCall(RootName, step.SequenceInfo{Name: RootName}, types.ModeActive)
	}
	return r.root
}

func (r *UUTReport) Mode() types.BuildMode { return r.Root().Mode() }

func (r *UUTReport) SetMode(m types.BuildMode) { r.Root().SetMode(m) }

// Problems 返回构建步骤树时收集到的问题
func (r *UUTReport) Problems() []string { return r.Root().Problems() }

func (r *UUTReport) AddSubUnit(pn, sn, rev, partType string) {
	r.SubUnits = append(r.SubUnits, SubUnit{PN: pn, SN: sn, Rev: rev, PartType: partType})
}

// Evaluate 重新评估整棵步骤树并据根序列状态设置 result
func (r *UUTReport) Evaluate() []string {
	problems := r.Root().Validate()
	r.Result = resultOf(r.Root().Status)
	return problems
}

// result 返回写入报告的 result
// active 模式下默认的 P 以根序列状态为准，调用方显式设置的其它结果保持不变
func (r *UUTReport) result() types.Status {
	if r.Result == types.StatusPassed && r.Mode() == types.ModeActive {
		return resultOf(r.Root().Status)
	}
	return r.Result
}

func resultOf(s types.Status) types.Status {
	switch s {
	case types.StatusFailed, types.StatusError, types.StatusTerminated, types.StatusDone:
		return s
	}
	return types.StatusPassed
}

// Validate 校验身份字段
func (r *UUTReport) Validate() error { return r.validateIdentity() }

type uutWire struct {
	Header
	Info     UUTInfo   `json:"uut"`
	SubUnits []SubUnit `json:"subUnits,omitempty"`
}

func (r UUTReport) MarshalJSON() ([]byte, error) {
	h := r.Header
	h.Type = TypeUUT
	h.Result = r.result()
	return json.Marshal(struct {
		uutWire
		Root *step.SequenceCall `json:"root"`
	}{uutWire{h, r.Info, r.SubUnits}, r.Root()})
}

func (r *UUTReport) UnmarshalJSON(data []byte) error {
	var w struct {
		uutWire
		Root json.RawMessage `json:"root"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Header = w.Header
	r.Info = w.Info
	r.SubUnits = w.SubUnits
	r.syncStart(time.Now)
	if len(w.Root) == 0 || string(w.Root) == "null" {
		r.root = step.NewSequenceCall(RootName, step.SequenceInfo{Name: RootName}, types.ModeImport)
		return nil
	}
	root, err := step.DecodeSequence(w.Root)
	if err != nil {
		return fmt.Errorf("uut root: %w", err)
	}
	r.root = root
	return nil
}
