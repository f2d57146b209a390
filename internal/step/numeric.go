package step

import (
	"encoding/json"
	"fmt"

	"wats-sdk/internal/measure"
	"wats-sdk/internal/types"
)

// NumericStep 单个数值测量的步骤
type NumericStep struct {
	Common
	Measurement measure.Numeric
}

func (s *NumericStep) Validate() []string {
	var problems []string
	status, _ := s.Measurement.Evaluate()
	if err := s.Measurement.CheckLimits(); err != nil {
		problems = append(problems, fmt.Sprintf("%s: %v", s.Path(), err))
		status = types.StatusFailed
	}
	s.Measurement.Status = status
	s.settle(status)
	return problems
}

func (s *NumericStep) adoptStatus() {
	if s.Measurement.Status == "" {
		s.Measurement.Status = s.Status
	}
}

func (s NumericStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypeNumeric
	return json.Marshal(struct {
		Common
		NumericMeas []measure.Numeric `json:"numericMeas"`
	}{c, []measure.Numeric{s.Measurement}})
}

func (s *NumericStep) UnmarshalJSON(data []byte) error {
	var w struct {
		Common
		NumericMeas oneOrMany[measure.Numeric] `json:"numericMeas"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Common.assign(w.Common)
	s.Type = TypeNumeric
	s.Measurement, _ = w.NumericMeas.first()
	return nil
}

// MultiNumericStep 多个数值测量的步骤，每个测量值必须有名称
type MultiNumericStep struct {
	Common
	Measurements []*measure.Numeric
}

// AddMeasurement 追加一个测量值，同名时自动加后缀，并按构建模式重新评估步骤
func (s *MultiNumericStep) AddMeasurement(name string, m measure.Numeric) *measure.Numeric {
	p := &m
	s.Measurements = append(s.Measurements, addMeasurement(&s.Common, s.Measurements, name, p))
	s.refresh(s)
	return p
}

func (s *MultiNumericStep) Validate() []string {
	var problems []string
	status := types.StatusPassed
	for _, m := range s.Measurements {
		ms, _ := m.Evaluate()
		if err := m.CheckLimits(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", s.Path(), err))
			ms = types.StatusFailed
		}
		m.Status = ms
		status = types.Worst(status, ms)
	}
	s.settle(status)
	return problems
}

func (s *MultiNumericStep) adoptStatus() { adoptAll(s.Status, s.Measurements) }

func (s MultiNumericStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypeMultiNumeric
	meas := s.Measurements
	if meas == nil {
		meas = []*measure.Numeric{}
	}
	return json.Marshal(struct {
		Common
		NumericMeas []*measure.Numeric `json:"numericMeas"`
	}{c, meas})
}

func (s *MultiNumericStep) UnmarshalJSON(data []byte) error {
	var w struct {
		Common
		NumericMeas oneOrMany[*measure.Numeric] `json:"numericMeas"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Common.assign(w.Common)
	s.Type = TypeMultiNumeric
	s.Measurements = w.NumericMeas
	return nil
}

// addMeasurement 是多测量步骤共用的命名逻辑：校验名称并在本步骤范围内去重
func addMeasurement[M measure.Measurement](c *Common, existing []M, name string, m M) M {
	name, problems := checkName(c.Path(), "measurement", name)
	c.report(problems...)
	m.Base().Name = uniqueName(name, func(n string) bool {
		for _, e := range existing {
			if e.Base().Name == n {
				return true
			}
		}
		return false
	})
	return m
}

func adoptAll[M measure.Measurement](status types.Status, list []M) {
	for _, m := range list {
		if m.Base().Status == "" {
			m.Base().Status = status
		}
	}
}
