package station

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wats-sdk/internal/config"
	"wats-sdk/internal/report"
)

func TestNewFallsBackToHostname(t *testing.T) {
	host, err := os.Hostname()
	require.NoError(t, err)

	s := New(config.Station{Location: "Line 3"})
	assert.Equal(t, host, s.Name)
	assert.Equal(t, "Line 3", s.Location)

	s = New(config.Station{Name: "ICT-01"})
	assert.Equal(t, "ICT-01", s.Name)
}

func TestParamsKeepsExplicitValues(t *testing.T) {
	s := Station{Name: "ICT-01", Location: "Line 3", Purpose: "Production"}
	p := s.Params(report.Params{PN: "PCB-1", SN: "1", Rev: "A", Purpose: "Debug"})
	assert.Equal(t, "ICT-01", p.StationName)
	assert.Equal(t, "Line 3", p.Location)
	assert.Equal(t, "Debug", p.Purpose)

	r, err := report.NewUUT(p)
	require.NoError(t, err)
	assert.Equal(t, "ICT-01", r.MachineName)
}

func TestFillHeader(t *testing.T) {
	s := Station{Name: "ICT-01", Location: "Line 3", Purpose: "Production"}
	h := report.Header{MachineName: "EOL-02"}
	s.Fill(&h)
	assert.Equal(t, "EOL-02", h.MachineName)
	assert.Equal(t, "Line 3", h.Location)
	assert.Equal(t, "Production", h.Purpose)
}
