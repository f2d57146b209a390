package measure

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

type numberKind uint8

const (
	kindNull numberKind = iota
	kindFloat
	kindText
)

// Number 是线上格式中"数字或字符串"的取值，可以为空
// 旧版本的测试程序会把数值以字符串形式上报，这里原样保留
type Number struct {
	f    float64
	s    string
	kind numberKind
}

// Float 构造一个数值型 Number
func Float(f float64) Number {
	return Number{f: f, kind: kindFloat}
}

// Text 构造一个字符串型 Number
func Text(s string) Number {
	return Number{s: s, kind: kindText}
}

// Limit 返回指向数值的指针，用于填写可选的上下限
func Limit(f float64) *Number {
	n := Float(f)
	return &n
}

// IsNull 判断是否为空值
func (n Number) IsNull() bool {
	return n.kind == kindNull
}

// Float64 尝试把取值解释为浮点数
// 空值或无法解析的字符串返回 false
func (n Number) Float64() (float64, bool) {
	switch n.kind {
	case kindFloat:
		return n.f, true
	case kindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(n.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (n Number) String() string {
	switch n.kind {
	case kindFloat:
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	case kindText:
		return n.s
	}
	return ""
}

// float 对 nil 安全的取值
func (n *Number) float() (float64, bool) {
	if n == nil {
		return 0, false
	}
	return n.Float64()
}

func (n Number) MarshalJSON() ([]byte, error) {
	switch n.kind {
	case kindFloat:
		// JSON 无法表示 NaN/Inf，退化为字符串
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return json.Marshal(n.String())
		}
		return []byte(strconv.FormatFloat(n.f, 'g', -1, 64)), nil
	case kindText:
		return json.Marshal(n.s)
	}
	return []byte("null"), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = Number{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Text(s)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if errors.Is(err, strconv.ErrRange) {
			// 超出 float64 范围的字面量按字符串保留，不影响整份报告解码
			*n = Text(string(data))
			return nil
		}
		if err != nil {
			return err
		}
		*n = Float(f)
	}
	return nil
}
