package step

import (
	"slices"
	"strings"
	"time"

	"wats-sdk/internal/types"
)

// TimeLayout 是步骤 start 字段使用的时间格式 (带时区偏移)
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Step 是步骤树中所有节点的公共接口
// 具体类型包括 SequenceCall 和各种叶子步骤
type Step interface {
	// Info 返回所有步骤共有的字段
	Info() *Common
	// Validate 评估自身 (及子步骤) 的测量值，更新状态并在失败时向上传播
	// 返回构造或配置上的问题描述，不会中断调用方
	Validate() []string
}

// Common 是所有步骤类型共有的字段
type Common struct {
	Type         string          `json:"stepType"`
	Name         string          `json:"name"`
	ID           int             `json:"id"`
	Group        types.StepGroup `json:"group,omitempty"`
	Status       types.Status    `json:"status"`
	ErrorCode    *int            `json:"errorCode,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	ReportText   string          `json:"reportText,omitempty"`
	Start        string          `json:"start,omitempty"`
	TotTime      *float64        `json:"totTime,omitempty"` // 执行耗时，单位秒

	parent       *SequenceCall // 所在的 SequenceCall，只用于向上遍历，不持有所有权
	shieldParent bool          // fail_parent_on_failure 取反，零值对应默认的 true
	propagated   bool          // 当前的失败状态来自子步骤传播，而不是调用方设置或导入
	prior        types.Status  // 传播覆盖前的状态
}

func (c *Common) Info() *Common { return c }

// Parent 返回包含该步骤的 SequenceCall，未挂载时为 nil
func (c *Common) Parent() *SequenceCall { return c.parent }

// FailParentOnFailure 失败时是否将父节点标记为失败，默认 true
func (c *Common) FailParentOnFailure() bool { return !c.shieldParent }

func (c *Common) SetFailParentOnFailure(v bool) { c.shieldParent = !v }

// SetStatus 显式设置状态，SequenceCall 上设置的失败不会在重新评估时被子步骤状态覆盖
func (c *Common) SetStatus(s types.Status) {
	c.Status = s
	c.propagated, c.prior = false, ""
}

// Path 返回从根节点到当前步骤的名称路径，以 "/" 分隔
func (c *Common) Path() string {
	names := []string{c.Name}
	for p := c.parent; p != nil; p = p.parent {
		names = append(names, p.Name)
	}
	slices.Reverse(names)
	return strings.Join(names, "/")
}

// Depth 返回步骤所在的层级，根节点为 0
func (c *Common) Depth() int {
	d := 0
	for p := c.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// assign 用解码结果覆盖线上字段，保留运行时的父节点关系
func (c *Common) assign(w Common) {
	parent, shield := c.parent, c.shieldParent
	*c = w
	c.parent, c.shieldParent = parent, shield
}

// settle 写入最终状态，失败时触发向上传播
func (c *Common) settle(status types.Status) {
	c.Status = status
	if status == types.StatusFailed {
		c.propagateFailure()
	}
}

// propagateFailure 沿父节点链向上标记失败
// 到达根节点，或遇到关闭了 fail_parent_on_failure 的节点时停止
func (c *Common) propagateFailure() {
	for cur := c; cur.parent != nil && !cur.shieldParent; cur = &cur.parent.Common {
		p := &cur.parent.Common
		p.markPropagated()
		p.Status = types.StatusFailed
	}
}

// markPropagated 在状态被子步骤的失败覆盖前记下原状态
func (c *Common) markPropagated() {
	if c.Status != types.StatusFailed {
		c.propagated, c.prior = true, c.Status
	}
}

// context 返回所在树的构建上下文，未挂载时为 nil
func (c *Common) context() *buildContext {
	if c.parent == nil {
		return nil
	}
	return c.parent.context()
}

// report 记录构造问题到所在树
func (c *Common) report(problems ...string) {
	if ctx := c.context(); ctx != nil {
		ctx.record(problems...)
	}
}

// refresh 在步骤内容变化后按构建模式重新评估
// 未挂载的步骤按 active 模式处理
func (c *Common) refresh(s Step) []string {
	ctx := c.context()
	if ctx != nil && ctx.mode == types.ModeImport {
		if a, ok := s.(statusAdopter); ok {
			a.adoptStatus()
		}
		return nil
	}
	problems := s.Validate()
	c.report(problems...)
	return problems
}

// Option 用于在工厂方法中设置步骤的可选字段
type Option func(*Common)

// WithStatus 设置初始状态
// active 模式下带测量值的步骤会在添加时重新计算，覆盖该值
func WithStatus(s types.Status) Option {
	return func(c *Common) { c.Status = s }
}

func WithGroup(g types.StepGroup) Option {
	return func(c *Common) { c.Group = g }
}

// WithID 指定步骤 ID，0 表示自动分配
func WithID(id int) Option {
	return func(c *Common) { c.ID = id }
}

func WithReportText(text string) Option {
	return func(c *Common) { c.ReportText = text }
}

func WithError(code int, msg string) Option {
	return func(c *Common) {
		c.ErrorCode = &code
		c.ErrorMessage = msg
	}
}

func WithStart(t time.Time) Option {
	return func(c *Common) { c.Start = t.Format(TimeLayout) }
}

func WithTotTime(d time.Duration) Option {
	return func(c *Common) {
		secs := d.Seconds()
		c.TotTime = &secs
	}
}

// WithFailParentOnFailure 控制失败时是否标记父节点
func WithFailParentOnFailure(v bool) Option {
	return func(c *Common) { c.shieldParent = !v }
}
