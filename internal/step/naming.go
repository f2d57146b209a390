package step

import (
	"fmt"
	"unicode/utf8"
)

// MaxNameLength 步骤名和测量名允许的最大字符数
const MaxNameLength = 100

// truncateName 按字符 (rune) 截断名称
func truncateName(name string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	runes := []rune(name)
	return string(runes[:max])
}

// uniqueName 在同一容器内为重名追加 " #2"、" #3" ...
// 追加后超长时先截断基础名称，保证完整名称不超过 MaxNameLength
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" #%d", i)
		base := truncateName(name, MaxNameLength-utf8.RuneCountInString(suffix))
		if candidate := base + suffix; !taken(candidate) {
			return candidate
		}
	}
}

// checkName 校验名称并返回可用的名称和发现的问题
func checkName(path, kind, name string) (string, []string) {
	var problems []string
	if name == "" {
		problems = append(problems, fmt.Sprintf("%s: %s name is required", path, kind))
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		problems = append(problems, fmt.Sprintf("%s: %s name %q exceeds %d characters, truncated", path, kind, name, MaxNameLength))
		name = truncateName(name, MaxNameLength)
	}
	return name, problems
}
