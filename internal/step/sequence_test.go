package step

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wats-sdk/internal/measure"
	"wats-sdk/internal/types"
)

func newRoot(mode types.BuildMode) *SequenceCall {
	return NewSequenceCall("MainSequence Callback", SequenceInfo{Name: "MainSequence"}, mode)
}

func voltage(v float64) measure.Numeric {
	return measure.Numeric{Value: measure.Float(v), Unit: "V", CompOp: measure.GELE, LowLimit: measure.Limit(4.5), HighLimit: measure.Limit(5.5)}
}

func TestAddNumericStepPasses(t *testing.T) {
	root := newRoot(types.ModeActive)
	s := root.AddNumericStep("Voltage", voltage(5.0))

	assert.Equal(t, types.StatusPassed, s.Status)
	assert.Equal(t, types.StatusPassed, s.Measurement.Status)
	assert.Equal(t, types.StatusPassed, root.Status)
	assert.Same(t, root, s.Parent())
	assert.Equal(t, types.GroupMain, s.Group)
}

func TestFailurePropagatesToRoot(t *testing.T) {
	root := newRoot(types.ModeActive)
	sub := root.AddSequenceCall("Power", SequenceInfo{Name: "PowerTests"})
	inner := sub.AddSequenceCall("Rails", SequenceInfo{})
	sibling := root.AddActionStep("Setup")

	s := inner.AddNumericStep("Voltage", voltage(6.0))

	assert.Equal(t, types.StatusFailed, s.Status)
	assert.Equal(t, types.StatusFailed, inner.Status)
	assert.Equal(t, types.StatusFailed, sub.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
	assert.Equal(t, types.StatusPassed, sibling.Status)
}

func TestFailParentOnFailureOptOut(t *testing.T) {
	root := newRoot(types.ModeActive)
	sub := root.AddSequenceCall("Sub", SequenceInfo{})
	s := sub.AddNumericStep("Voltage", voltage(9), WithFailParentOnFailure(false))

	assert.Equal(t, types.StatusFailed, s.Status)
	assert.False(t, s.FailParentOnFailure())
	assert.Equal(t, types.StatusPassed, sub.Status)
	assert.Equal(t, types.StatusPassed, root.Status)
}

func TestPropagationStopsAtShieldedAncestor(t *testing.T) {
	root := newRoot(types.ModeActive)
	sub := root.AddSequenceCall("Sub", SequenceInfo{}, WithFailParentOnFailure(false))
	sub.AddNumericStep("Voltage", voltage(9))

	assert.Equal(t, types.StatusFailed, sub.Status)
	assert.Equal(t, types.StatusPassed, root.Status)
}

func TestNameDisambiguation(t *testing.T) {
	root := newRoot(types.ModeActive)
	a := root.AddActionStep("Test")
	b := root.AddActionStep("Test")
	c := root.AddNumericStep("Test", voltage(5))

	assert.Equal(t, "Test", a.Name)
	assert.Equal(t, "Test #2", b.Name)
	assert.Equal(t, "Test #3", c.Name)

	// 不同容器之间互不影响
	sub := root.AddSequenceCall("Sub", SequenceInfo{})
	assert.Equal(t, "Test", sub.AddActionStep("Test").Name)
}

func TestNameTruncation(t *testing.T) {
	root := newRoot(types.ModeActive)
	long := strings.Repeat("x", MaxNameLength)
	first := root.AddActionStep(long)
	second := root.AddActionStep(long)

	assert.Equal(t, long, first.Name)
	assert.Equal(t, strings.Repeat("x", MaxNameLength-3)+" #2", second.Name)
	assert.Len(t, []rune(second.Name), MaxNameLength)

	tooLong := root.AddActionStep(strings.Repeat("y", MaxNameLength+5))
	assert.Len(t, tooLong.Name, MaxNameLength)
	require.NotEmpty(t, root.Problems())
	assert.Contains(t, root.Problems()[0], "exceeds")
}

func TestEmptyNameIsReported(t *testing.T) {
	root := newRoot(types.ModeActive)
	root.AddActionStep("")
	problems := root.Problems()
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "name is required")
}

func TestImportModeTrustsStatus(t *testing.T) {
	root := newRoot(types.ModeImport)
	s := root.AddNumericStep("Voltage", voltage(6.0), WithStatus(types.StatusPassed))
	assert.Equal(t, types.StatusPassed, s.Status)
	assert.Equal(t, types.StatusPassed, s.Measurement.Status)

	led := root.AddBooleanStep("LED", types.StatusFailed)
	assert.Equal(t, types.StatusFailed, led.Status)
	// import 模式不做传播，根节点状态同样由调用方决定
	assert.Equal(t, types.StatusPassed, root.Status)
}

func TestBooleanStepActiveMode(t *testing.T) {
	root := newRoot(types.ModeActive)
	led := root.AddBooleanStep("LED", types.StatusFailed)
	assert.Equal(t, types.StatusFailed, led.Status)
	assert.Equal(t, types.StatusFailed, root.Status)

	ok := root.AddBooleanStep("Fan", types.StatusPassed)
	assert.Equal(t, types.StatusPassed, ok.Status)
}

func TestMultiNumericStep(t *testing.T) {
	root := newRoot(types.ModeActive)
	s := root.AddMultiNumericStep("Rails")
	m1 := s.AddMeasurement("3V3", measure.Numeric{Value: measure.Float(3.3), CompOp: measure.GELE, LowLimit: measure.Limit(3.2), HighLimit: measure.Limit(3.4)})
	m2 := s.AddMeasurement("3V3", measure.Numeric{Value: measure.Float(3.3), CompOp: measure.LOG})

	assert.Equal(t, "3V3", m1.Name)
	assert.Equal(t, "3V3 #2", m2.Name)
	assert.Equal(t, types.StatusPassed, s.Status)
	assert.Equal(t, types.StatusPassed, root.Status)

	s.AddMeasurement("5V", measure.Numeric{Value: measure.Float(4), CompOp: measure.GE, LowLimit: measure.Limit(4.8)})
	assert.Equal(t, types.StatusFailed, s.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
}

func TestMultiNumericLimitMisconfiguration(t *testing.T) {
	root := newRoot(types.ModeActive)
	s := root.AddMultiNumericStep("Rails")
	m := s.AddMeasurement("12V", measure.Numeric{Value: measure.Float(12), CompOp: measure.GELE, LowLimit: measure.Limit(13), HighLimit: measure.Limit(11)})
	s.AddMeasurement("5V", voltage(5.0))
	s.AddMeasurement("5V", voltage(5.1))

	assert.Equal(t, types.StatusFailed, m.Status)
	assert.Equal(t, types.StatusFailed, s.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
	problems := root.Problems()
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "12V")
	assert.Contains(t, problems[0], measure.ErrLimitOrder.Error())
}

func TestMultiBooleanAndStringSteps(t *testing.T) {
	root := newRoot(types.ModeActive)
	mb := root.AddMultiBooleanStep("LEDs")
	mb.AddMeasurement("Red", types.StatusPassed)
	mb.AddMeasurement("Red", types.StatusPassed)
	assert.Equal(t, "Red #2", mb.Measurements[1].Name)
	assert.Equal(t, types.StatusPassed, mb.Status)

	ms := root.AddMultiStringStep("Versions")
	ms.AddMeasurement("FW", measure.String{Value: measure.Ptr("1.2.0"), CompOp: measure.EQ, Limit: measure.Ptr("1.2.0")})
	ms.AddMeasurement("HW", measure.String{Value: measure.Ptr("B"), CompOp: measure.GT, Limit: measure.Ptr("A")})
	assert.Equal(t, types.StatusError, ms.Status)
	assert.Equal(t, types.StatusPassed, root.Status)

	mb.AddMeasurement("Green", types.StatusFailed)
	assert.Equal(t, types.StatusFailed, mb.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
}

func TestStringStep(t *testing.T) {
	root := newRoot(types.ModeActive)
	s := root.AddStringStep("Serial", measure.String{Value: measure.Ptr("abc"), CompOp: measure.IGNORECASE, Limit: measure.Ptr("ABC")})
	assert.Equal(t, types.StatusPassed, s.Status)

	bad := root.AddStringStep("Model", measure.String{Value: measure.Ptr("X1"), CompOp: measure.EQ, Limit: measure.Ptr("X2")})
	assert.Equal(t, types.StatusFailed, bad.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
}

func TestPassThroughSteps(t *testing.T) {
	root := newRoot(types.ModeActive)
	g := root.AddGenericStep("NI_Wait", "Wait")
	ch := root.AddChartStep("Sweep", Chart{ChartType: "Line", Series: []Series{NewSeries("gain", []float64{1, 2}, []float64{0.5, 0.7})}})
	assert.Equal(t, types.StatusPassed, g.Status)
	assert.Equal(t, types.StatusPassed, ch.Status)
	assert.Equal(t, "NI_Wait", g.Type)
	assert.Equal(t, types.StatusPassed, root.Status)

	a := root.AddActionStep("Flash", WithStatus(types.StatusFailed))
	assert.Equal(t, types.StatusFailed, a.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
}

func TestAutoIDs(t *testing.T) {
	root := newRoot(types.ModeActive)
	a := root.AddActionStep("A")
	sub := root.AddSequenceCall("Sub", SequenceInfo{})
	b := sub.AddActionStep("B")
	c := root.AddActionStep("C", WithID(42))
	d := root.AddActionStep("D")

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, sub.ID)
	assert.Equal(t, 3, b.ID)
	assert.Equal(t, 42, c.ID)
	assert.Equal(t, 4, d.ID)
}

func TestTraversal(t *testing.T) {
	root := newRoot(types.ModeActive)
	root.AddNumericStep("V1", voltage(5))
	sub := root.AddSequenceCall("Sub", SequenceInfo{})
	sub.AddNumericStep("V2", voltage(7))
	sub.AddActionStep("V1")
	root.AddActionStep("Done")

	assert.Equal(t, 3, root.CountSteps(false))
	assert.Equal(t, 5, root.CountSteps(true))

	found := root.FindStep("V1", true)
	require.NotNil(t, found)
	assert.Equal(t, TypeNumeric, found.Info().Type)
	assert.Nil(t, root.FindStep("V2", false))
	assert.NotNil(t, root.FindStep("V2", true))

	all := slices.Collect(root.FindAllSteps(Filter{Name: "V1"}, true))
	assert.Len(t, all, 2)
	numeric := slices.Collect(root.FindAllSteps(Filter{Type: TypeNumeric}, true))
	assert.Len(t, numeric, 2)

	failed := slices.Collect(root.FailedSteps(true))
	require.Len(t, failed, 2)
	assert.Equal(t, "Sub", failed[0].Info().Name)
	assert.Equal(t, "V2", failed[1].Info().Name)
	assert.Len(t, slices.Collect(sub.FailedSteps(false)), 1)

	assert.Equal(t, "MainSequence Callback/Sub/V2", root.FindStep("V2", true).Info().Path())
	assert.Equal(t, 2, root.FindStep("V2", true).Info().Depth())
}

func TestValidateRecomputesTree(t *testing.T) {
	root := newRoot(types.ModeImport)
	sub := root.AddSequenceCall("Sub", SequenceInfo{})
	s := sub.AddNumericStep("V", voltage(9), WithStatus(types.StatusPassed))
	require.Equal(t, types.StatusPassed, root.Status)

	problems := root.Validate()
	assert.Empty(t, problems)
	assert.Equal(t, types.StatusFailed, s.Status)
	assert.Equal(t, types.StatusFailed, sub.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
}

func TestValidateClearsPropagatedFailure(t *testing.T) {
	root := newRoot(types.ModeActive)
	sub := root.AddSequenceCall("Power", SequenceInfo{}, WithStatus(types.StatusError))
	s := sub.AddNumericStep("Voltage", voltage(6.0))
	require.Equal(t, types.StatusFailed, sub.Status)
	require.Equal(t, types.StatusFailed, root.Status)

	s.Measurement.Value = measure.Float(5.0)
	assert.Empty(t, root.Validate())
	assert.Equal(t, types.StatusPassed, s.Status)
	assert.Equal(t, types.StatusError, sub.Status)
	assert.Equal(t, types.StatusPassed, root.Status)

	s.Measurement.Value = measure.Float(4.0)
	root.Validate()
	assert.Equal(t, types.StatusFailed, sub.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
}

func TestValidateKeepsExplicitSequenceFailure(t *testing.T) {
	root := newRoot(types.ModeActive)
	sub := root.AddSequenceCall("Aborted", SequenceInfo{}, WithStatus(types.StatusFailed))
	sub.AddNumericStep("Voltage", voltage(5.0))
	other := root.AddSequenceCall("Retry", SequenceInfo{})
	other.AddNumericStep("Voltage", voltage(5.0))

	root.Validate()
	assert.Equal(t, types.StatusFailed, sub.Status)
	assert.Equal(t, types.StatusPassed, other.Status)
	assert.Equal(t, types.StatusFailed, root.Status)

	other.SetStatus(types.StatusFailed)
	sub.SetStatus(types.StatusPassed)
	root.Validate()
	assert.Equal(t, types.StatusFailed, other.Status)
	assert.Equal(t, types.StatusPassed, sub.Status)
	assert.Equal(t, types.StatusFailed, root.Status)
}
