package step

import (
	"cmp"
	"encoding/json"
	"iter"
	"slices"

	"wats-sdk/internal/measure"
	"wats-sdk/internal/types"
)

// SequenceInfo 描述被调用的子序列，只作为元数据记录
type SequenceInfo struct {
	Path    string `json:"path,omitempty"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Caller  string `json:"caller,omitempty"` // 调用方序列名
	Module  string `json:"module,omitempty"`
}

// buildContext 整棵树共享的构建状态，只挂在根节点上
type buildContext struct {
	mode     types.BuildMode
	problems []string
	lastID   int
	seeded   bool
}

// record 追加问题描述，同一条问题只记录一次
// 多测量步骤每追加一个测量值都会重新评估，已报告过的问题会再次出现
func (b *buildContext) record(problems ...string) {
	for _, p := range problems {
		if !slices.Contains(b.problems, p) {
			b.problems = append(b.problems, p)
		}
	}
}

// SequenceCall 表示一次子序列调用，本身也是步骤，持有任意类型的子步骤
// 子步骤只会被追加，不会被挂到祖先节点上；树无环是调用方需要保证的前提
type SequenceCall struct {
	Common
	Sequence SequenceInfo

	steps StepList
	ctx   *buildContext
}

var _ Step = (*SequenceCall)(nil)

// NewSequenceCall 创建一个独立的 SequenceCall，通常作为报告的根节点
func NewSequenceCall(name string, info SequenceInfo, mode types.BuildMode, opts ...Option) *SequenceCall {
	sc := &SequenceCall{Sequence: info, ctx: &buildContext{mode: mode}}
	sc.Type = TypeSequenceCall
	sc.Name = name
	sc.Group = types.GroupMain
	sc.Status = types.StatusPassed
	for _, opt := range opts {
		opt(&sc.Common)
	}
	sc.steps.owner = sc
	return sc
}

// Steps 返回子步骤列表
func (sc *SequenceCall) Steps() *StepList {
	sc.steps.owner = sc
	return &sc.steps
}

func (sc *SequenceCall) root() *SequenceCall {
	r := sc
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (sc *SequenceCall) context() *buildContext {
	r := sc.root()
	if r.ctx == nil {
		r.ctx = &buildContext{}
	}
	return r.ctx
}

// Mode 返回所在树的构建模式
func (sc *SequenceCall) Mode() types.BuildMode { return sc.context().mode }

// SetMode 切换所在树的构建模式，对整棵树生效
func (sc *SequenceCall) SetMode(m types.BuildMode) { sc.context().mode = m }

// Problems 返回构建过程中在整棵树上收集到的问题
func (sc *SequenceCall) Problems() []string {
	return slices.Clone(sc.context().problems)
}

func (sc *SequenceCall) nextID() int {
	ctx := sc.context()
	if !ctx.seeded {
		root := sc.root()
		ctx.lastID = root.ID
		for s := range root.Walk(true) {
			ctx.lastID = max(ctx.lastID, s.Info().ID)
		}
		ctx.seeded = true
	}
	ctx.lastID++
	return ctx.lastID
}

// statusAdopter 由带测量值的步骤实现：import 模式下把空的测量状态补成步骤状态
type statusAdopter interface {
	adoptStatus()
}

// add 是所有工厂方法的公共流程：默认值、选项、命名、ID、挂载、评估
func (sc *SequenceCall) add(s Step, name string, opts []Option) {
	c := s.Info()
	c.Name = name
	if c.Group == "" {
		c.Group = types.GroupMain
	}
	if c.Status == "" {
		c.Status = types.StatusPassed
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx := sc.context()
	name, problems := checkName(sc.Path()+"/"+c.Name, "step", c.Name)
	ctx.record(problems...)
	c.Name = uniqueName(name, sc.steps.hasName)
	if c.ID == 0 {
		c.ID = sc.nextID()
	}
	sc.Steps().Append(s)

	if ctx.mode == types.ModeImport {
		if a, ok := s.(statusAdopter); ok {
			a.adoptStatus()
		}
		return
	}
	ctx.record(s.Validate()...)
}

// AddSequenceCall 添加一个嵌套的 SequenceCall 并返回，便于继续链式添加子步骤
func (sc *SequenceCall) AddSequenceCall(name string, info SequenceInfo, opts ...Option) *SequenceCall {
	child := &SequenceCall{Sequence: info}
	child.Type = TypeSequenceCall
	if info.Caller == "" {
		child.Sequence.Caller = sc.Name
	}
	sc.add(child, name, opts)
	return child
}

// AddNumericStep 添加单个数值测量步骤
func (sc *SequenceCall) AddNumericStep(name string, m measure.Numeric, opts ...Option) *NumericStep {
	s := &NumericStep{Measurement: m}
	s.Type = TypeNumeric
	sc.add(s, name, opts)
	return s
}

// AddMultiNumericStep 添加多数值测量步骤，测量值通过 AddMeasurement 追加
func (sc *SequenceCall) AddMultiNumericStep(name string, opts ...Option) *MultiNumericStep {
	s := &MultiNumericStep{}
	s.Type = TypeMultiNumeric
	sc.add(s, name, opts)
	return s
}

// AddBooleanStep 添加通过/失败步骤
// 测量值由判定状态推导 (P→true, F→false)，因此 active 与 import 模式得到相同结果
func (sc *SequenceCall) AddBooleanStep(name string, status types.Status, opts ...Option) *PassFailStep {
	s := &PassFailStep{Measurement: newBoolean(status)}
	s.Type = TypePassFail
	s.Status = status
	sc.add(s, name, opts)
	return s
}

func (sc *SequenceCall) AddMultiBooleanStep(name string, opts ...Option) *MultiBooleanStep {
	s := &MultiBooleanStep{}
	s.Type = TypeMultiPassFail
	sc.add(s, name, opts)
	return s
}

// AddStringStep 添加字符串值步骤
func (sc *SequenceCall) AddStringStep(name string, m measure.String, opts ...Option) *StringValueStep {
	s := &StringValueStep{Measurement: m}
	s.Type = TypeStringValue
	sc.add(s, name, opts)
	return s
}

func (sc *SequenceCall) AddMultiStringStep(name string, opts ...Option) *MultiStringStep {
	s := &MultiStringStep{}
	s.Type = TypeMultiString
	sc.add(s, name, opts)
	return s
}

// AddGenericStep 添加流程控制类等没有测量值的通用步骤，stepType 为空时使用 GenericStep
func (sc *SequenceCall) AddGenericStep(stepType, name string, opts ...Option) *GenericStep {
	if stepType == "" {
		stepType = TypeGeneric
	}
	s := &GenericStep{}
	s.Type = stepType
	sc.add(s, name, opts)
	return s
}

func (sc *SequenceCall) AddActionStep(name string, opts ...Option) *ActionStep {
	s := &ActionStep{}
	s.Type = TypeAction
	sc.add(s, name, opts)
	return s
}

func (sc *SequenceCall) AddChartStep(name string, chart Chart, opts ...Option) *ChartStep {
	s := &ChartStep{Chart: chart}
	s.Type = TypeChart
	sc.add(s, name, opts)
	return s
}

// Validate 先校验全部子步骤，任一需要传播的子步骤失败时自身标记为失败
// 由传播得到的失败在子步骤全部恢复后重新计为通过，显式设置或导入的失败保持不变
func (sc *SequenceCall) Validate() []string {
	var problems []string
	failed := sc.Status == types.StatusFailed && !sc.propagated
	for _, s := range sc.steps.items {
		problems = append(problems, s.Validate()...)
		if c := s.Info(); c.Status == types.StatusFailed && c.FailParentOnFailure() {
			failed = true
		}
	}
	switch {
	case failed:
		sc.markPropagated()
		sc.settle(types.StatusFailed)
	case sc.Status == types.StatusFailed && sc.propagated:
		sc.Status = cmp.Or(sc.prior, types.StatusPassed)
		sc.propagated, sc.prior = false, ""
	case sc.Status == "":
		sc.Status = types.StatusPassed
	}
	return problems
}

// Walk 深度优先遍历子步骤；recursive 为 true 时进入嵌套的 SequenceCall
func (sc *SequenceCall) Walk(recursive bool) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		sc.walk(recursive, yield)
	}
}

func (sc *SequenceCall) walk(recursive bool, yield func(Step) bool) bool {
	for _, s := range sc.steps.items {
		if !yield(s) {
			return false
		}
		if child, ok := s.(*SequenceCall); ok && recursive {
			if !child.walk(true, yield) {
				return false
			}
		}
	}
	return true
}

// Filter 查找条件，空字段表示不限制
type Filter struct {
	Name string
	Type string
}

func (f Filter) match(s Step) bool {
	c := s.Info()
	return (f.Name == "" || c.Name == f.Name) && (f.Type == "" || c.Type == f.Type)
}

// FindStep 返回深度优先遍历中第一个同名步骤，找不到时返回 nil
func (sc *SequenceCall) FindStep(name string, recursive bool) Step {
	for s := range sc.Walk(recursive) {
		if s.Info().Name == name {
			return s
		}
	}
	return nil
}

// FindAllSteps 惰性返回所有满足条件的步骤
func (sc *SequenceCall) FindAllSteps(f Filter, recursive bool) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for s := range sc.Walk(recursive) {
			if f.match(s) && !yield(s) {
				return
			}
		}
	}
}

// FailedSteps 惰性返回所有状态为失败的步骤
func (sc *SequenceCall) FailedSteps(recursive bool) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for s := range sc.Walk(recursive) {
			if s.Info().Status == types.StatusFailed && !yield(s) {
				return
			}
		}
	}
}

func (sc *SequenceCall) CountSteps(recursive bool) int {
	n := 0
	for range sc.Walk(recursive) {
		n++
	}
	return n
}

type sequenceWire struct {
	Common
	SeqCall SequenceInfo `json:"seqCall"`
}

func (sc SequenceCall) MarshalJSON() ([]byte, error) {
	c := sc.Common
	c.Type = TypeSequenceCall
	steps := sc.steps.items
	if steps == nil {
		steps = []Step{}
	}
	return json.Marshal(struct {
		sequenceWire
		Steps []Step `json:"steps"`
	}{sequenceWire{c, sc.Sequence}, steps})
}

func (sc *SequenceCall) UnmarshalJSON(data []byte) error {
	var w struct {
		sequenceWire
		Steps []json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	sc.Common.assign(w.Common)
	sc.Type = TypeSequenceCall
	sc.Sequence = w.SeqCall
	sc.steps = StepList{owner: sc}
	for _, raw := range w.Steps {
		s, err := Decode(raw)
		if err != nil {
			return err
		}
		if err := sc.steps.Append(s); err != nil {
			return err
		}
	}
	return nil
}
