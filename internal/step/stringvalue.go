package step

import (
	"encoding/json"

	"wats-sdk/internal/measure"
	"wats-sdk/internal/types"
)

// StringValueStep 单个字符串测量的步骤
type StringValueStep struct {
	Common
	Measurement measure.String
}

func (s *StringValueStep) Validate() []string {
	s.Measurement.Status, _ = s.Measurement.Evaluate()
	s.settle(s.Measurement.Status)
	return nil
}

func (s *StringValueStep) adoptStatus() {
	if s.Measurement.Status == "" {
		s.Measurement.Status = s.Status
	}
}

func (s StringValueStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypeStringValue
	return json.Marshal(struct {
		Common
		StringMeas []measure.String `json:"stringMeas"`
	}{c, []measure.String{s.Measurement}})
}

func (s *StringValueStep) UnmarshalJSON(data []byte) error {
	var w struct {
		Common
		StringMeas oneOrMany[measure.String] `json:"stringMeas"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Common.assign(w.Common)
	s.Type = TypeStringValue
	s.Measurement, _ = w.StringMeas.first()
	return nil
}

// MultiStringStep 多个字符串测量的步骤
type MultiStringStep struct {
	Common
	Measurements []*measure.String
}

func (s *MultiStringStep) AddMeasurement(name string, m measure.String) *measure.String {
	p := addMeasurement(&s.Common, s.Measurements, name, &m)
	s.Measurements = append(s.Measurements, p)
	s.refresh(s)
	return p
}

func (s *MultiStringStep) Validate() []string {
	status := types.StatusPassed
	for _, m := range s.Measurements {
		m.Status, _ = m.Evaluate()
		status = types.Worst(status, m.Status)
	}
	s.settle(status)
	return nil
}

func (s *MultiStringStep) adoptStatus() { adoptAll(s.Status, s.Measurements) }

func (s MultiStringStep) MarshalJSON() ([]byte, error) {
	c := s.Common
	c.Type = TypeMultiString
	meas := s.Measurements
	if meas == nil {
		meas = []*measure.String{}
	}
	return json.Marshal(struct {
		Common
		StringMeas []*measure.String `json:"stringMeas"`
	}{c, meas})
}

func (s *MultiStringStep) UnmarshalJSON(data []byte) error {
	var w struct {
		Common
		StringMeas oneOrMany[*measure.String] `json:"stringMeas"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Common.assign(w.Common)
	s.Type = TypeMultiString
	s.Measurements = w.StringMeas
	return nil
}
