package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorst(t *testing.T) {
	tests := []struct {
		a, b, want Status
	}{
		{StatusPassed, StatusPassed, StatusPassed},
		{StatusPassed, StatusError, StatusError},
		{StatusError, StatusFailed, StatusFailed},
		{StatusFailed, StatusError, StatusFailed},
		{StatusSkipped, StatusPassed, StatusSkipped},
		{StatusPassed, StatusDone, StatusPassed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Worst(tt.a, tt.b), "Worst(%s, %s)", tt.a, tt.b)
	}
}

func TestStatusValidResult(t *testing.T) {
	for _, s := range []Status{StatusPassed, StatusFailed, StatusDone, StatusError, StatusTerminated} {
		assert.True(t, s.ValidResult(), string(s))
	}
	assert.False(t, StatusSkipped.ValidResult())
	assert.False(t, Status("X").Valid())
}

func TestParseBuildMode(t *testing.T) {
	for in, want := range map[string]BuildMode{"import": ModeImport, "Active": ModeActive, "": ModeActive} {
		got, err := ParseBuildMode(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBuildMode("replay")
	assert.Error(t, err)
	assert.Equal(t, "import", ModeImport.String())
}
