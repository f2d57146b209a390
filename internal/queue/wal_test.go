package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(id string, priority int) *Pending {
	return &Pending{
		ID:         id,
		Type:       "T",
		Priority:   priority,
		EnqueuedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Payload:    json.RawMessage(`{"type":"T","id":"` + id + `"}`),
	}
}

func TestRecoverSkipsCompleted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.wal")
	w, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, w.Append(pending("a", 1)))
	require.NoError(t, w.Append(pending("b", 5)))
	require.NoError(t, w.Append(pending("c", 0)))
	require.NoError(t, w.Complete("b"))
	require.NoError(t, w.Close())

	w, err = Open(path)
	require.NoError(t, err)
	defer w.Close()

	got, err := w.Recover()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.JSONEq(t, `{"type":"T","id":"a"}`, string(got[0].Payload))

	// 恢复之后仍然可以继续追加
	require.NoError(t, w.Append(pending("d", 2)))
	got, err = w.Recover()
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecoverIgnoresCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.wal")
	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(pending("a", 1)))
	require.NoError(t, w.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n{\"type\":\"REPORT\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = Open(path)
	require.NoError(t, err)
	defer w.Close()
	got, err := w.Recover()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestReappendAfterComplete(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "queue.wal"))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(pending("a", 1)))
	require.NoError(t, w.Complete("a"))
	// 以相同 ID 重新提交会覆盖服务端的报告，队列中也重新出现
	require.NoError(t, w.Append(pending("a", 9)))

	got, err := w.Recover()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Priority)
}

func TestClosedWAL(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "queue.wal"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Append(pending("a", 1)), ErrClosed)
	_, err = w.Recover()
	assert.ErrorIs(t, err, ErrClosed)
}
