package event

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesOnlySubscribers(t *testing.T) {
	bus := NewBus()
	var submitted, failed atomic.Int32
	bus.Subscribe(ReportSubmitted, func(e Event) {
		assert.Equal(t, "r-1", e.ReportID)
		submitted.Add(1)
	})
	bus.Subscribe(ReportSubmitted, func(e Event) { submitted.Add(1) })
	bus.Subscribe(ReportFailed, func(e Event) { failed.Add(1) })

	bus.Publish(Event{Type: ReportSubmitted, ReportID: "r-1"})
	bus.Publish(Event{Type: ReportQueued, ReportID: "r-1"})
	bus.Wait()

	assert.Equal(t, int32(2), submitted.Load())
	assert.Zero(t, failed.Load())
}
