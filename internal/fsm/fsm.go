package fsm

import (
	"fmt"
	"sync"
)

// State 定义报告的上传状态
type State string

// Event 定义驱动状态变化的事件
type Event string

const (
	StateQueued     State = "QUEUED"
	StateSubmitting State = "SUBMITTING"
	StateSubmitted  State = "SUBMITTED"
	StateFailed     State = "FAILED"
	StateSkipped    State = "SKIPPED"
)

const (
	EventSubmit  Event = "SUBMIT"
	EventAccept  Event = "ACCEPT"
	EventReject  Event = "REJECT"
	EventSkip    Event = "SKIP"
	EventRequeue Event = "REQUEUE"
)

// FSM 单个报告的上传状态机
type FSM struct {
	mu      sync.Mutex
	current State
	// transitions 定义状态转移表: CurrentState -> Event -> NextState
	transitions map[State]map[Event]State
	// callbacks 定义进入某个状态后的回调
	callbacks map[State]func(reportID string)
	ReportID  string
}

func NewFSM(reportID string) *FSM {
	f := &FSM{
		current:     StateQueued,
		ReportID:    reportID,
		transitions: make(map[State]map[Event]State),
		callbacks:   make(map[State]func(string)),
	}
	f.initTransitions()
	return f
}

func (f *FSM) initTransitions() {
	f.addTransition(StateQueued, EventSubmit, StateSubmitting)
	f.addTransition(StateQueued, EventSkip, StateSkipped) // 提交规则不满足

	f.addTransition(StateSubmitting, EventAccept, StateSubmitted)
	f.addTransition(StateSubmitting, EventReject, StateFailed)

	f.addTransition(StateFailed, EventRequeue, StateQueued) // 下次恢复时重新提交
}

func (f *FSM) addTransition(from State, event Event, to State) {
	if _, ok := f.transitions[from]; !ok {
		f.transitions[from] = make(map[Event]State)
	}
	f.transitions[from][event] = to
}

// Current 返回当前状态
func (f *FSM) Current() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Terminal 判断当前状态是否为终态
func (f *FSM) Terminal() bool {
	switch f.Current() {
	case StateSubmitted, StateSkipped:
		return true
	}
	return false
}

// RegisterCallback 注册状态进入时的回调
func (f *FSM) RegisterCallback(state State, callback func(reportID string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks[state] = callback
}

// Fire 触发事件；回调在释放锁之后执行，回调中可以再次调用 Fire
func (f *FSM) Fire(event Event) error {
	f.mu.Lock()
	next, ok := f.transitions[f.current][event]
	if !ok {
		cur := f.current
		f.mu.Unlock()
		return fmt.Errorf("invalid transition: cannot fire event %s from state %s", event, cur)
	}
	f.current = next
	cb := f.callbacks[next]
	f.mu.Unlock()

	if cb != nil {
		cb(f.ReportID)
	}
	return nil
}
