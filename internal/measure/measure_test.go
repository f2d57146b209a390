package measure

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wats-sdk/internal/types"
)

func TestNumericEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		m        Numeric
		want     types.Status
		wantFlag bool
	}{
		{"GELE inside", Numeric{Value: Float(5), CompOp: GELE, LowLimit: Limit(4), HighLimit: Limit(5)}, types.StatusPassed, true},
		{"GTLT exclusive boundary", Numeric{Value: Float(5), CompOp: GTLT, LowLimit: Limit(5), HighLimit: Limit(5.1)}, types.StatusFailed, false},
		{"GELE inclusive boundary", Numeric{Value: Float(5), CompOp: GELE, LowLimit: Limit(5), HighLimit: Limit(5.1)}, types.StatusPassed, true},
		{"GELT upper excluded", Numeric{Value: Float(6), CompOp: GELT, LowLimit: Limit(5), HighLimit: Limit(6)}, types.StatusFailed, false},
		{"GTLE upper included", Numeric{Value: Float(6), CompOp: GTLE, LowLimit: Limit(5), HighLimit: Limit(6)}, types.StatusPassed, true},
		{"GT", Numeric{Value: Float(3), CompOp: GT, LowLimit: Limit(3)}, types.StatusFailed, false},
		{"GE", Numeric{Value: Float(3), CompOp: GE, LowLimit: Limit(3)}, types.StatusPassed, true},
		{"LT", Numeric{Value: Float(3), CompOp: LT, HighLimit: Limit(4)}, types.StatusPassed, true},
		{"LE fail", Numeric{Value: Float(5), CompOp: LE, HighLimit: Limit(4)}, types.StatusFailed, false},
		{"EQ uses low limit", Numeric{Value: Float(2), CompOp: EQ, LowLimit: Limit(2)}, types.StatusPassed, true},
		{"NE uses low limit", Numeric{Value: Float(2), CompOp: NE, LowLimit: Limit(2)}, types.StatusFailed, false},
		{"string value numeric", Numeric{Value: Text("4.9"), CompOp: LT, HighLimit: Limit(5)}, types.StatusPassed, true},
		{"string limit numeric", Numeric{Value: Float(6), CompOp: LT, HighLimit: &Number{s: "5", kind: kindText}}, types.StatusFailed, false},
		{"string op on numeric is error", Numeric{Value: Float(1), CompOp: IGNORECASE, LowLimit: Limit(1)}, types.StatusError, false},
		{"unknown op is error", Numeric{Value: Float(1), CompOp: "XX", LowLimit: Limit(1)}, types.StatusError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := tt.m.Evaluate()
			assert.Equal(t, tt.want, status)
			assert.Equal(t, tt.wantFlag, ok)
		})
	}
}

// 以下行为保留了"无法判定即通过"的宽松默认值，是否应改为 Error 需要与服务端负责人确认
func TestNumericEvaluatePermissiveDefaults(t *testing.T) {
	cases := map[string]Numeric{
		"non-numeric value":   {Value: Text("n/a"), CompOp: GELE, LowLimit: Limit(1), HighLimit: Limit(2)},
		"null value":          {CompOp: GT, LowLimit: Limit(1)},
		"missing high limit":  {Value: Float(100), CompOp: GELE, LowLimit: Limit(1)},
		"missing low for GT":  {Value: Float(-1), CompOp: GT, HighLimit: Limit(1)},
		"missing high for LT": {Value: Float(100), CompOp: LT, LowLimit: Limit(1)},
		"non-numeric limit":   {Value: Float(100), CompOp: LE, HighLimit: &Number{s: "max", kind: kindText}},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			status, ok := m.Evaluate()
			assert.Equal(t, types.StatusPassed, status)
			assert.True(t, ok)
		})
	}
}

func TestLogNeverFails(t *testing.T) {
	values := []Number{Float(-1e9), Float(0), Float(1e9), Text("garbage"), {}}
	for _, op := range []CompOp{LOG, ""} {
		for _, v := range values {
			m := Numeric{Value: v, CompOp: op, LowLimit: Limit(10), HighLimit: Limit(1)}
			status, ok := m.Evaluate()
			assert.Equal(t, types.StatusPassed, status)
			assert.True(t, ok)
		}
		s := String{Value: Ptr("a"), CompOp: op, Limit: Ptr("b")}
		status, _ := s.Evaluate()
		assert.Equal(t, types.StatusPassed, status)
	}
}

func TestNumericCheckLimits(t *testing.T) {
	bad := Numeric{Meta: Meta{Name: "V"}, Value: Float(1), CompOp: GELE, LowLimit: Limit(5), HighLimit: Limit(1)}
	err := bad.CheckLimits()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLimitOrder))
	assert.Contains(t, err.Error(), `"V"`)

	single := Numeric{Value: Float(1), CompOp: GT, LowLimit: Limit(5), HighLimit: Limit(1)}
	assert.NoError(t, single.CheckLimits())

	good := Numeric{Value: Float(1), CompOp: GELE, LowLimit: Limit(1), HighLimit: Limit(1)}
	assert.NoError(t, good.CheckLimits())
}

func TestBooleanEvaluate(t *testing.T) {
	status, ok := (&Boolean{}).Evaluate()
	assert.Equal(t, types.StatusPassed, status)
	assert.True(t, ok)

	status, _ = (&Boolean{Value: Ptr(true)}).Evaluate()
	assert.Equal(t, types.StatusPassed, status)

	status, ok = (&Boolean{Value: Ptr(false)}).Evaluate()
	assert.Equal(t, types.StatusFailed, status)
	assert.False(t, ok)

	status, _ = (&Boolean{Value: Ptr(false), Expected: Ptr(false)}).Evaluate()
	assert.Equal(t, types.StatusPassed, status)
}

func TestStringEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		op    CompOp
		value string
		limit string
		want  types.Status
	}{
		{"EQ match", EQ, "abc", "abc", types.StatusPassed},
		{"EQ case differs", EQ, "ABC", "abc", types.StatusFailed},
		{"CASESENSIT", CASESENSIT, "abc", "abc", types.StatusPassed},
		{"IGNORECASE", IGNORECASE, "ABC", "abc", types.StatusPassed},
		{"IGNORECASE differs", IGNORECASE, "ABD", "abc", types.StatusFailed},
		{"NE", NE, "a", "b", types.StatusPassed},
		{"NE equal", NE, "a", "a", types.StatusFailed},
		{"numeric op", GELE, "a", "a", types.StatusError},
		{"GT", GT, "b", "a", types.StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := String{Value: Ptr(tt.value), CompOp: tt.op, Limit: Ptr(tt.limit)}
			status, _ := m.Evaluate()
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestNumberJSON(t *testing.T) {
	var m Numeric
	require.NoError(t, json.Unmarshal([]byte(`{"status":"P","value":"12.5","lowLimit":1,"highLimit":null}`), &m))
	v, ok := m.Value.Float64()
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)
	require.NotNil(t, m.LowLimit)
	assert.Equal(t, "1", m.LowLimit.String())
	assert.Nil(t, m.HighLimit)

	out, err := json.Marshal(Numeric{Meta: Meta{Status: types.StatusPassed}, Value: Float(5), CompOp: GE, LowLimit: Limit(4.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"P","value":5,"compOp":"GE","lowLimit":4.5}`, string(out))

	out, err = json.Marshal(Numeric{Meta: Meta{Status: types.StatusPassed}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"P","value":null}`, string(out))

	out, err = json.Marshal(Text("n/a"))
	require.NoError(t, err)
	assert.Equal(t, `"n/a"`, string(out))
}

func TestNumberOutOfRangeLiteral(t *testing.T) {
	var m Numeric
	require.NoError(t, json.Unmarshal([]byte(`{"status":"P","value":1e400,"compOp":"LOG"}`), &m))
	assert.False(t, m.Value.IsNull())
	assert.Equal(t, "1e400", m.Value.String())
	_, ok := m.Value.Float64()
	assert.False(t, ok)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	var again Numeric
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, m.Value, again.Value)

	var n Number
	assert.Error(t, json.Unmarshal([]byte(`1x`), &n))
}
