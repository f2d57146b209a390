package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wats-sdk/internal/fsm"
	"wats-sdk/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestStateTrackerWithoutHub(t *testing.T) {
	st := NewStateTracker(nil)
	st.AddReport(report.Summary{ID: "r1", Type: "T", PN: "ABC", SN: "1", Result: "P"}, 3)
	st.UpdateReportState("r1", fsm.StateSubmitted, "")
	st.UpdateReportState("missing", fsm.StateFailed, "boom")

	snap := st.GetStateSnapshot()
	require.Len(t, snap.Reports, 1)
	assert.Equal(t, fsm.StateSubmitted, snap.Reports["r1"].Status)
	assert.Equal(t, 3, snap.Reports["r1"].Priority)

	// 快照与内部状态互不影响
	delete(snap.Reports, "r1")
	assert.Len(t, st.GetStateSnapshot().Reports, 1)
}

func TestHubBroadcastsState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(discardLogger())
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	st := NewStateTracker(hub)
	st.AddReport(report.Summary{ID: "r1", Type: "T", PN: "ABC", SN: "1", Result: "F"}, 0)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var state GlobalState
	require.NoError(t, json.Unmarshal(msg, &state))
	assert.Equal(t, fsm.StateQueued, state.Reports["r1"].Status)
	assert.Equal(t, "F", state.Reports["r1"].Result)
}
