package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// UURInfo 维修相关信息
// 维修工序代码就是报告顶层的 processCode，这里的 processCode 与 testOperationCode 都指原测试工序
type UURInfo struct {
	Operator          string     `json:"user,omitempty"`
	ProcessCode       int        `json:"processCode"`
	TestOperationCode int        `json:"testOperationCode"`
	RepairProcessCode int        `json:"repairProcessCode"`
	RefUUT            *uuid.UUID `json:"refUUT,omitempty"`
	Comment           string     `json:"comment,omitempty"`
	ExecTime          float64    `json:"execTime,omitempty"`
	ConfirmDate       *time.Time `json:"confirmDate,omitempty"`
	FinalizeDate      *time.Time `json:"finalizeDate,omitempty"`
}

// Failure 维修中发现的一个故障
type Failure struct {
	Category  string `json:"category"`
	Code      string `json:"code"`
	Comment   string `json:"comment,omitempty"`
	ComRef    string `json:"comRef,omitempty"` // 元件位号
	FuncBlock string `json:"funcBlock,omitempty"`
	RefStepID *int   `json:"refStepId,omitempty"`

	ArtNumber      string `json:"artNumber,omitempty"`
	ArtRev         string `json:"artRev,omitempty"`
	ArtVendor      string `json:"artVendor,omitempty"`
	ArtDescription string `json:"artDescription,omitempty"`
}

// UURSubUnit 可维修的部件，idx 为 0 的是主单元
type UURSubUnit struct {
	Idx       int       `json:"idx"`
	PN        string    `json:"pn"`
	SN        string    `json:"sn"`
	Rev       string    `json:"rev,omitempty"`
	PartType  string    `json:"partType,omitempty"`
	ParentIdx *int      `json:"parentIdx,omitempty"`
	Failures  []Failure `json:"failures,omitempty"`
}

// AddFailure 在部件上记录一个故障
func (u *UURSubUnit) AddFailure(f Failure) *Failure {
	u.Failures = append(u.Failures, f)
	return &u.Failures[len(u.Failures)-1]
}

// UURReport 维修报告
type UURReport struct {
	Header
	Info     UURInfo
	SubUnits []*UURSubUnit
}

var _ Report = (*UURReport)(nil)

// NewUUR 创建维修报告，p.ProcessCode 是维修工序代码，testOperationCode 是原测试工序代码
func NewUUR(p Params, testOperationCode int) (*UURReport, error) {
	r := &UURReport{Header: newHeader(TypeUUR, p)}
	r.SetTestOperationCode(testOperationCode)
	r.Info.RepairProcessCode = r.ProcessCode
	r.ensureMainUnit()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewUURFromUUT 由失败的测试报告创建维修报告
// 身份与工站字段在 p 中为空时沿用 UUT 的取值；UUR 拥有自己的 id，通过 refUUT 指回 UUT
func NewUURFromUUT(uut *UUTReport, repairCode int, p Params) (*UURReport, error) {
	if p.PN == "" {
		p.PN = uut.PN
	}
	if p.SN == "" {
		p.SN = uut.SN
	}
	if p.Rev == "" {
		p.Rev = uut.Rev
	}
	if p.StationName == "" {
		p.StationName = uut.MachineName
	}
	if p.Location == "" {
		p.Location = uut.Location
	}
	if p.Purpose == "" {
		p.Purpose = uut.Purpose
	}
	p.ProcessCode = repairCode
	r, err := NewUUR(p, uut.ProcessCode)
	if err != nil {
		return nil, err
	}
	ref := uut.ID
	r.Info.RefUUT = &ref
	return r, nil
}

// SetTestOperationCode 设置原测试工序代码
func (r *UURReport) SetTestOperationCode(code int) {
	r.Info.ProcessCode = code
	r.Info.TestOperationCode = code
}

// SetRepairProcessCode 设置维修工序代码，即报告顶层的 processCode
func (r *UURReport) SetRepairProcessCode(code int) {
	r.ProcessCode = code
	r.Info.RepairProcessCode = code
}

// ensureMainUnit 保证 idx 0 的主单元存在且与报告身份一致
func (r *UURReport) ensureMainUnit() {
	if len(r.SubUnits) > 0 && r.SubUnits[0].Idx == 0 {
		return
	}
	// 已有主单元但不在首位时移到最前，其余部件保持原有顺序
	if i := slices.IndexFunc(r.SubUnits, func(u *UURSubUnit) bool { return u.Idx == 0 }); i > 0 {
		unit := r.SubUnits[i]
		r.SubUnits = slices.Insert(slices.Delete(r.SubUnits, i, i+1), 0, unit)
		return
	}
	unit := &UURSubUnit{Idx: 0, PN: r.PN, SN: r.SN, Rev: r.Rev}
	r.SubUnits = append([]*UURSubUnit{unit}, r.SubUnits...)
}

// MainUnit 返回主单元
func (r *UURReport) MainUnit() *UURSubUnit {
	r.ensureMainUnit()
	return r.SubUnits[0]
}

// SubUnit 按 idx 查找部件
func (r *UURReport) SubUnit(idx int) (*UURSubUnit, bool) {
	for _, u := range r.SubUnits {
		if u.Idx == idx {
			return u, true
		}
	}
	return nil, false
}

// AddSubUnit 追加一个部件，parentIdx 指向其所属部件 (主单元为 0)
func (r *UURReport) AddSubUnit(pn, sn, rev, partType string, parentIdx int) (*UURSubUnit, error) {
	r.ensureMainUnit()
	if _, ok := r.SubUnit(parentIdx); !ok {
		return nil, fmt.Errorf("sub unit parent %d: %w", parentIdx, ErrSubUnitNotFound)
	}
	next := 0
	for _, u := range r.SubUnits {
		next = max(next, u.Idx+1)
	}
	u := &UURSubUnit{Idx: next, PN: pn, SN: sn, Rev: rev, PartType: partType, ParentIdx: &parentIdx}
	r.SubUnits = append(r.SubUnits, u)
	return u, nil
}

// AddFailure 在主单元上记录一个故障
func (r *UURReport) AddFailure(f Failure) *Failure {
	return r.MainUnit().AddFailure(f)
}

// FailureCount 返回所有部件上的故障总数
func (r *UURReport) FailureCount() int {
	n := 0
	for _, u := range r.SubUnits {
		n += len(u.Failures)
	}
	return n
}

// Validate 校验身份字段以及两个工序代码必须不同
func (r *UURReport) Validate() error {
	errs := []error{r.validateIdentity()}
	if r.ProcessCode == r.Info.TestOperationCode {
		errs = append(errs, fmt.Errorf("process code %d: %w", r.ProcessCode, ErrProcessCodeConflict))
	}
	return errors.Join(errs...)
}

type uurWire struct {
	Header
	Info     UURInfo       `json:"uur"`
	SubUnits []*UURSubUnit `json:"subUnits"`
}

func (r UURReport) MarshalJSON() ([]byte, error) {
	h := r.Header
	h.Type = TypeUUR
	info := r.Info
	info.RepairProcessCode = h.ProcessCode
	return json.Marshal(uurWire{h, info, r.SubUnits})
}

func (r *UURReport) UnmarshalJSON(data []byte) error {
	var w uurWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Header = w.Header
	r.Info = w.Info
	r.SubUnits = w.SubUnits
	r.syncStart(time.Now)
	r.ensureMainUnit()
	return nil
}
