package step

import (
	"bytes"
	"encoding/json"
)

// oneOrMany 兼容线上格式的怪癖：单测量步骤的测量值被包在只有一个元素的数组里，
// 旧数据中也可能直接是对象
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*o = nil
		return nil
	case data[0] == '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*o = items
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*o = oneOrMany[T]{item}
	return nil
}

func (o oneOrMany[T]) first() (T, bool) {
	var zero T
	if len(o) == 0 {
		return zero, false
	}
	return o[0], true
}
