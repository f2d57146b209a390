package step

import (
	"encoding/json"
	"fmt"

	"wats-sdk/internal/types"
)

// 各步骤类型在线上格式中的标准 stepType
const (
	TypeSequenceCall  = "SequenceCall"
	TypeNumeric       = "ET_NLT"
	TypeMultiNumeric  = "ET_MNLT"
	TypePassFail      = "ET_PFT"
	TypeMultiPassFail = "ET_MPFT"
	TypeStringValue   = "ET_SVT"
	TypeMultiString   = "ET_MSVT"
	TypeAction        = "Action"
	TypeChart         = "WATS_Chart"
	TypeGeneric       = "GenericStep"
)

// registry stepType (含别名) 到构造函数的映射
var registry = map[string]func() Step{}

func register(newStep func() Step, names ...string) {
	for _, n := range names {
		registry[n] = newStep
	}
}

func init() {
	register(func() Step { return &SequenceCall{} },
		TypeSequenceCall, "NI_SequenceCall", "SeqCall")
	register(func() Step { return &NumericStep{} },
		TypeNumeric, "NumericLimitTest", "NumericLimitStep", "NumericStep")
	register(func() Step { return &MultiNumericStep{} },
		TypeMultiNumeric, "MultipleNumericLimitTest", "MultiNumericStep")
	register(func() Step { return &PassFailStep{} },
		TypePassFail, "PassFailTest", "PassFailStep", "BooleanStep")
	register(func() Step { return &MultiBooleanStep{} },
		TypeMultiPassFail, "MultiplePassFailTest", "MultiBooleanStep")
	register(func() Step { return &StringValueStep{} },
		TypeStringValue, "StringValueTest", "StringValueStep", "StringStep")
	register(func() Step { return &MultiStringStep{} },
		TypeMultiString, "MultipleStringValueTest", "MultiStringStep")
	register(func() Step { return &ActionStep{} },
		TypeAction, "ActionStep", "NI_Action")
	register(func() Step { return &ChartStep{} },
		TypeChart, "ChartStep", "Chart")
	register(func() Step { return &GenericStep{} },
		TypeGeneric, "Statement", "Label", "MessagePopup", "CallExecutable", "PropertyLoader",
		"NI_Wait", "NI_Goto", "NI_CallExecutable", "NI_Lock", "NI_Rendezvous", "NI_Queue",
		"NI_Notification", "NI_Semaphore", "NI_BatchSync",
		"NI_Flow_If", "NI_Flow_ElseIf", "NI_Flow_Else", "NI_Flow_End",
		"NI_Flow_For", "NI_Flow_ForEach", "NI_Flow_While", "NI_Flow_DoWhile",
		"NI_Flow_Break", "NI_Flow_Continue", "NI_Flow_Select", "NI_Flow_Case")
}

// Known 判断 stepType 是否有对应的具体类型
func Known(stepType string) bool {
	_, ok := registry[stepType]
	return ok
}

// Decode 按 stepType 把线上对象解码为具体的步骤类型
// 未知的 stepType 解码为 UnknownStep，不会返回错误
func Decode(data []byte) (Step, error) {
	var head struct {
		Type string `json:"stepType"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode step: %w", err)
	}
	newStep, ok := registry[head.Type]
	if !ok {
		newStep = func() Step { return &UnknownStep{} }
	}
	s := newStep()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode step %q: %w", head.Type, err)
	}
	return s, nil
}

// DecodeSequence 解码一棵完整的步骤树，结果处于 import 模式
func DecodeSequence(data []byte) (*SequenceCall, error) {
	sc := &SequenceCall{}
	if err := json.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("decode sequence: %w", err)
	}
	sc.ctx = &buildContext{mode: types.ModeImport}
	return sc, nil
}
