package step

import (
	"encoding/json"

	"wats-sdk/internal/measure"
	"wats-sdk/internal/types"
)

// PassFailStep 单个布尔测量的通过/失败步骤
type PassFailStep struct {
	Common
	Measurement measure.Boolean
}

// newBoolean 由判定状态推导布尔测量值，其他状态不给出取值
func newBoolean(status types.Status) measure.Boolean {
	m := measure.Boolean{Meta: measure.Meta{Status: status}}
	switch status {
	case types.StatusPassed:
		m.Value = measure.Ptr(true)
	case types.StatusFailed:
		m.Value = measure.Ptr(false)
	}
	return m
}

// evaluateBoolean 没有取值时不做判定，保留测量值原有状态
func evaluateBoolean(m *measure.Boolean) types.Status {
	if m.Value == nil {
		if m.Status == "" {
			m.Status = types.StatusPassed
		}
		return m.Status
	}
	m.Status, _ = m.Evaluate()
	return m.Status
}

func (s *PassFailStep) Validate() []string {
	s.settle(evaluateBoolean(&s.Measurement))
	return nil
}

func (s *PassFailStep) adoptStatus() {
	if s.Measurement.Status == "" {
		s.Measurement.Status = s.Status
	}
}

func (s PassFailStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypePassFail
	return json.Marshal(struct {
		Common
		BooleanMeas []measure.Boolean `json:"booleanMeas"`
	}{c, []measure.Boolean{s.Measurement}})
}

func (s *PassFailStep) UnmarshalJSON(data []byte) error {
	var w struct {
		Common
		BooleanMeas oneOrMany[measure.Boolean] `json:"booleanMeas"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Common.assign(w.Common)
	s.Type = TypePassFail
	s.Measurement, _ = w.BooleanMeas.first()
	return nil
}

// MultiBooleanStep 多个布尔测量的步骤
type MultiBooleanStep struct {
	Common
	Measurements []*measure.Boolean
}

// AddMeasurement 追加一个由判定状态推导的布尔测量值
func (s *MultiBooleanStep) AddMeasurement(name string, status types.Status) *measure.Boolean {
	m := newBoolean(status)
	p := addMeasurement(&s.Common, s.Measurements, name, &m)
	s.Measurements = append(s.Measurements, p)
	s.refresh(s)
	return p
}

func (s *MultiBooleanStep) Validate() []string {
	status := types.StatusPassed
	for _, m := range s.Measurements {
		status = types.Worst(status, evaluateBoolean(m))
	}
	s.settle(status)
	return nil
}

func (s *MultiBooleanStep) adoptStatus() { adoptAll(s.Status, s.Measurements) }

func (s MultiBooleanStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypeMultiPassFail
	meas := s.Measurements
	if meas == nil {
		meas = []*measure.Boolean{}
	}
	return json.Marshal(struct {
		Common
		BooleanMeas []*measure.Boolean `json:"booleanMeas"`
	}{c, meas})
}

func (s *MultiBooleanStep) UnmarshalJSON(data []byte) error {
	var w struct {
		Common
		BooleanMeas oneOrMany[*measure.Boolean] `json:"booleanMeas"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Common.assign(w.Common)
	s.Type = TypeMultiPassFail
	s.Measurements = w.BooleanMeas
	return nil
}
