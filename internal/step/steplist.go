package step

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
)

var (
	ErrNilStep         = errors.New("step is nil")
	ErrIndexOutOfRange = errors.New("step index out of range")
)

// StepList 是有序的步骤容器
// 挂在 SequenceCall 上时，每次追加、插入、替换都会把步骤的 parent 指向该 SequenceCall；
// 独立创建的 StepList 只作为暂存区，不修改步骤的 parent
type StepList struct {
	owner *SequenceCall
	items []Step
}

// NewStepList 创建一个独立的暂存列表
func NewStepList(steps ...Step) (*StepList, error) {
	l := &StepList{}
	if err := l.Append(steps...); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *StepList) Len() int { return len(l.items) }

// At 返回下标 i 处的步骤，越界时返回 nil
func (l *StepList) At(i int) Step {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// All 按顺序遍历所有步骤
func (l *StepList) All() iter.Seq2[int, Step] {
	return slices.All(l.items)
}

// Append 追加一个或多个步骤，任一步骤为 nil 时不做任何修改
func (l *StepList) Append(steps ...Step) error {
	if err := checkSteps(steps); err != nil {
		return err
	}
	for _, s := range steps {
		l.adopt(s)
		l.items = append(l.items, s)
	}
	return nil
}

// Insert 在下标 i 处插入步骤，i == Len() 等同于追加
func (l *StepList) Insert(i int, s Step) error {
	if err := checkSteps([]Step{s}); err != nil {
		return err
	}
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("insert at %d: %w", i, ErrIndexOutOfRange)
	}
	l.adopt(s)
	// adopt 可能从同一列表外的父节点移除，不影响本列表下标
	l.items = slices.Insert(l.items, i, s)
	return nil
}

// Set 替换下标 i 处的步骤，被替换的步骤与本列表解除关联
func (l *StepList) Set(i int, s Step) error {
	if err := checkSteps([]Step{s}); err != nil {
		return err
	}
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("set at %d: %w", i, ErrIndexOutOfRange)
	}
	old := l.items[i]
	l.adopt(s)
	l.items[i] = s
	l.release(old)
	return nil
}

// Extend 把另一个列表的全部步骤按顺序拼接到末尾
func (l *StepList) Extend(other *StepList) error {
	if other == nil {
		return nil
	}
	return l.Append(slices.Clone(other.items)...)
}

// Remove 移除下标 i 处的步骤并返回
func (l *StepList) Remove(i int) (Step, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("remove at %d: %w", i, ErrIndexOutOfRange)
	}
	s := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.release(s)
	return s, nil
}

// Index 返回步骤在列表中的下标，不存在时返回 -1
func (l *StepList) Index(s Step) int {
	return slices.IndexFunc(l.items, func(x Step) bool { return x == s })
}

func (l *StepList) hasName(name string) bool {
	return slices.ContainsFunc(l.items, func(s Step) bool { return s.Info().Name == name })
}

// adopt 注入 parent；步骤原先属于别的 SequenceCall 时先从那里摘除
func (l *StepList) adopt(s Step) {
	if l.owner == nil {
		return
	}
	c := s.Info()
	if prev := c.parent; prev != nil && prev != l.owner {
		if i := prev.steps.Index(s); i >= 0 {
			prev.steps.items = slices.Delete(prev.steps.items, i, i+1)
		}
	}
	c.parent = l.owner
}

func (l *StepList) release(s Step) {
	if l.owner == nil || l.Index(s) >= 0 {
		return
	}
	if c := s.Info(); c.parent == l.owner {
		c.parent = nil
	}
}

func checkSteps(steps []Step) error {
	for _, s := range steps {
		if s == nil {
			return ErrNilStep
		}
		if v := reflect.ValueOf(s); v.Kind() == reflect.Pointer && v.IsNil() {
			return ErrNilStep
		}
	}
	return nil
}
