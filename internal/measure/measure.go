package measure

import (
	"errors"
	"fmt"
	"strings"

	"wats-sdk/internal/types"
)

// ErrLimitOrder 表示双限比较符的下限大于上限
var ErrLimitOrder = errors.New("low limit is greater than high limit")

// CompOp 定义测量值与上下限的比较方式
type CompOp string

const (
	LOG  CompOp = "LOG"  // 仅记录，不做判定
	GT   CompOp = "GT"   // value > low
	GE   CompOp = "GE"   // value >= low
	LT   CompOp = "LT"   // value < high
	LE   CompOp = "LE"   // value <= high
	EQ   CompOp = "EQ"   // value == low (字符串: 区分大小写)
	NE   CompOp = "NE"   // value != low
	GTLT CompOp = "GTLT" // low < value < high
	GELE CompOp = "GELE" // low <= value <= high
	GELT CompOp = "GELT" // low <= value < high
	GTLE CompOp = "GTLE" // low < value <= high

	IGNORECASE CompOp = "IGNORECASE" // 字符串: 忽略大小写相等
	CASESENSIT CompOp = "CASESENSIT" // 字符串: 区分大小写相等
)

func (op CompOp) isLog() bool {
	return op == "" || op == LOG
}

// TwoLimits 判断比较符是否同时使用上下限
func (op CompOp) TwoLimits() bool {
	switch op {
	case GTLT, GELE, GELT, GTLE:
		return true
	}
	return false
}

// Meta 是所有测量值共有的字段
type Meta struct {
	Name   string       `json:"name,omitempty"` // 在多测量步骤中必填
	Status types.Status `json:"status"`
}

// Base 返回共有字段，供步骤层统一处理
func (m *Meta) Base() *Meta { return m }

// Measurement 是数值、布尔、字符串三种测量值的公共能力
type Measurement interface {
	Base() *Meta
	// Evaluate 根据比较符与上下限计算判定结果，不修改自身
	Evaluate() (types.Status, bool)
}

var (
	_ Measurement = (*Numeric)(nil)
	_ Measurement = (*Boolean)(nil)
	_ Measurement = (*String)(nil)
)

func passed() (types.Status, bool) { return types.StatusPassed, true }
func failed() (types.Status, bool) { return types.StatusFailed, false }

// Numeric 数值测量
type Numeric struct {
	Meta
	Value     Number  `json:"value"`
	Unit      string  `json:"unit,omitempty"`
	CompOp    CompOp  `json:"compOp,omitempty"`
	HighLimit *Number `json:"highLimit,omitempty"`
	LowLimit  *Number `json:"lowLimit,omitempty"`
}

// Evaluate 计算数值测量的判定
// 取值无法转换为数字或缺少所需上下限时不做判定，直接视为通过
func (m *Numeric) Evaluate() (types.Status, bool) {
	if m.CompOp.isLog() {
		return passed()
	}
	switch m.CompOp {
	case IGNORECASE, CASESENSIT:
		return types.StatusError, false
	}

	v, ok := m.Value.Float64()
	if !ok {
		return passed()
	}
	low, hasLow := m.LowLimit.float()
	high, hasHigh := m.HighLimit.float()

	var inRange bool
	switch m.CompOp {
	case GT, GE, EQ, NE:
		if !hasLow {
			return passed()
		}
	case LT, LE:
		if !hasHigh {
			return passed()
		}
	case GTLT, GELE, GELT, GTLE:
		if !hasLow || !hasHigh {
			return passed()
		}
	default:
		return types.StatusError, false
	}

	switch m.CompOp {
	case GT:
		inRange = v > low
	case GE:
		inRange = v >= low
	case LT:
		inRange = v < high
	case LE:
		inRange = v <= high
	case EQ:
		inRange = v == low
	case NE:
		inRange = v != low
	case GTLT:
		inRange = v > low && v < high
	case GELE:
		inRange = v >= low && v <= high
	case GELT:
		inRange = v >= low && v < high
	case GTLE:
		inRange = v > low && v <= high
	}
	if inRange {
		return passed()
	}
	return failed()
}

// CheckLimits 检查双限比较符的上下限配置
// 与 Evaluate 相互独立：配置错误时 Evaluate 仍可能返回通过
func (m *Numeric) CheckLimits() error {
	if !m.CompOp.TwoLimits() {
		return nil
	}
	low, hasLow := m.LowLimit.float()
	high, hasHigh := m.HighLimit.float()
	if hasLow && hasHigh && low > high {
		return fmt.Errorf("measurement %q: %w (%s > %s)", m.Name, ErrLimitOrder, m.LowLimit, m.HighLimit)
	}
	return nil
}

// Boolean 布尔 (通过/失败) 测量
type Boolean struct {
	Meta
	Value *bool `json:"value,omitempty"`
	// Expected 期望值，为空时按 true 处理，不参与序列化
	Expected *bool `json:"-"`
}

func (m *Boolean) Evaluate() (types.Status, bool) {
	if m.Value == nil {
		return passed()
	}
	expected := true
	if m.Expected != nil {
		expected = *m.Expected
	}
	if *m.Value == expected {
		return passed()
	}
	return failed()
}

// String 字符串测量
type String struct {
	Meta
	Value  *string `json:"value,omitempty"`
	CompOp CompOp  `json:"compOp,omitempty"`
	Limit  *string `json:"limit,omitempty"`
}

// Evaluate 计算字符串测量的判定
// 数值类比较符用在字符串上属于调用方错误，返回 Error
func (m *String) Evaluate() (types.Status, bool) {
	if m.CompOp.isLog() {
		return passed()
	}
	switch m.CompOp {
	case EQ, NE, CASESENSIT, IGNORECASE:
	default:
		return types.StatusError, false
	}
	if m.Value == nil || m.Limit == nil {
		return passed()
	}

	var match bool
	switch m.CompOp {
	case EQ, CASESENSIT:
		match = *m.Value == *m.Limit
	case IGNORECASE:
		match = strings.EqualFold(*m.Value, *m.Limit)
	case NE:
		match = *m.Value != *m.Limit
	}
	if match {
		return passed()
	}
	return failed()
}

// Ptr 返回任意值的指针，便于填写可选字段
func Ptr[T any](v T) *T {
	return &v
}
