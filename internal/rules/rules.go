package rules

import (
	"fmt"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"

	"wats-sdk/internal/report"
)

// Rule 编译后的提交规则，以报告摘要为环境求值
// 例如: Result == "F" || PN startsWith "PCB-"
type Rule struct {
	src     string
	program *vm.Program
}

// Compile 编译规则表达式；src 为空时返回 nil，表示全部提交
func Compile(src string) (*Rule, error) {
	if src == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(report.Summary{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("rule compilation failed: %w", err)
	}
	return &Rule{src: src, program: program}, nil
}

// Match 判断报告是否应当提交；nil 规则总是返回 true
func (r *Rule) Match(s report.Summary) (bool, error) {
	if r == nil {
		return true, nil
	}
	result, err := expr.Run(r.program, s)
	if err != nil {
		return false, fmt.Errorf("rule execution failed: %w", err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("rule result is not a boolean")
	}
	return ok, nil
}

func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.src
}
