package step

import (
	"encoding/json"
	"maps"
)

// commonKeys 是 Common 占用的线上字段
var commonKeys = []string{
	"stepType", "name", "id", "group", "status",
	"errorCode", "errorMessage", "reportText", "start", "totTime",
}

// UnknownStep 无法识别 stepType 时的兜底类型
// 除公共字段外的所有字段原样保存在 Extra 中，重新序列化时写回
type UnknownStep struct {
	Common
	Extra map[string]json.RawMessage
}

func (s *UnknownStep) Validate() []string { return passThrough(&s.Common) }

func (s UnknownStep) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(s.Common)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(s.Extra)+len(fields))
	maps.Copy(out, s.Extra)
	maps.Copy(out, fields)
	return json.Marshal(out)
}

func (s *UnknownStep) UnmarshalJSON(data []byte) error {
	var c Common
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range commonKeys {
		delete(all, k)
	}
	s.Common.assign(c)
	s.Extra = all
	return nil
}
