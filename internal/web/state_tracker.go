package web

import (
	"maps"
	"sync"
	"time"

	"wats-sdk/internal/fsm"
	"wats-sdk/internal/report"
)

// ReportState 定义了用于 UI 展示的报告上传状态
type ReportState struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	PN        string    `json:"pn"`
	SN        string    `json:"sn"`
	Result    string    `json:"result"`
	Priority  int       `json:"priority"`
	Status    fsm.State `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GlobalState 所有报告的状态快照
type GlobalState struct {
	Reports map[string]ReportState `json:"reports"`
}

// StateTracker 负责追踪所有报告的实时状态，并通知前端更新
type StateTracker struct {
	mu    sync.RWMutex
	state GlobalState
	hub   *Hub
}

// NewStateTracker 创建一个新的 StateTracker 实例，hub 为 nil 时不广播
func NewStateTracker(hub *Hub) *StateTracker {
	return &StateTracker{
		state: GlobalState{Reports: make(map[string]ReportState)},
		hub:   hub,
	}
}

// AddReport 记录一个新入队的报告，并广播
func (st *StateTracker) AddReport(s report.Summary, priority int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.state.Reports[s.ID] = ReportState{
		ID:        s.ID,
		Type:      s.Type,
		PN:        s.PN,
		SN:        s.SN,
		Result:    s.Result,
		Priority:  priority,
		Status:    fsm.StateQueued,
		UpdatedAt: time.Now(),
	}
	st.broadcast()
}

// UpdateReportState 更新报告状态；未知报告会被忽略
func (st *StateTracker) UpdateReportState(id string, status fsm.State, errMsg string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	r, ok := st.state.Reports[id]
	if !ok {
		return
	}
	r.Status = status
	r.Error = errMsg
	r.UpdatedAt = time.Now()
	st.state.Reports[id] = r
	st.broadcast()
}

func (st *StateTracker) broadcast() {
	if st.hub != nil {
		st.hub.BroadcastState(st.state)
	}
}

// GetStateSnapshot 返回当前全局状态的副本
// 用于新客户端连接时获取一次全量数据
func (st *StateTracker) GetStateSnapshot() GlobalState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return GlobalState{Reports: maps.Clone(st.state.Reports)}
}
