package report

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 报告身份字段不合法，所有 *ValidationError 都匹配该错误
	ErrValidation = errors.New("report validation failed")
	// ErrProcessCodeConflict UUR 的维修工序代码与原测试工序代码相同
	ErrProcessCodeConflict = errors.New("repair process code equals test operation code")
	ErrSubUnitNotFound     = errors.New("sub unit not found")
)

// ValidationError 描述单个字段的校验失败
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
