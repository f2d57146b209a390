package types

import (
	"fmt"
	"strings"
)

// Status 定义步骤、测量值和报告的结果状态
// 使用 WSJF 的单字符编码，方便直接序列化
type Status string

const (
	StatusPassed     Status = "P" // 通过
	StatusFailed     Status = "F" // 失败
	StatusError      Status = "E" // 错误 (例如比较符与测量类型不匹配)
	StatusDone       Status = "D" // 完成 (无判定)
	StatusTerminated Status = "T" // 被终止
	StatusSkipped    Status = "S" // 跳过
)

// Valid 判断状态码是否为已知取值
func (s Status) Valid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusError, StatusDone, StatusTerminated, StatusSkipped:
		return true
	}
	return false
}

// ValidResult 判断状态码是否可以作为报告的 result (P|F|D|E|T)
func (s Status) ValidResult() bool {
	return s.Valid() && s != StatusSkipped
}

// severity 用于聚合：Failed > Error > 其他
func (s Status) severity() int {
	switch s {
	case StatusFailed:
		return 2
	case StatusError:
		return 1
	}
	return 0
}

// Worst 返回两个状态中更严重的那个
// 严重程度相同时保留 a
func Worst(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// StepGroup 定义步骤所属的组
type StepGroup string

const (
	GroupSetup   StepGroup = "S"
	GroupMain    StepGroup = "M"
	GroupCleanup StepGroup = "C"
)

// BuildMode 决定工厂方法是否重新计算测量状态
//   - ModeActive: 添加步骤时立即评估测量值并向上传播失败
//   - ModeImport: 信任调用方提供的状态，不做任何重新计算
type BuildMode int

const (
	ModeActive BuildMode = iota
	ModeImport
)

func (m BuildMode) String() string {
	if m == ModeImport {
		return "import"
	}
	return "active"
}

// ParseBuildMode 解析配置中的模式字符串，空字符串按 active 处理
func ParseBuildMode(s string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return ModeActive, nil
	case "import":
		return ModeImport, nil
	}
	return ModeActive, fmt.Errorf("unknown build mode %q", s)
}
