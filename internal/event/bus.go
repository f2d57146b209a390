package event

import (
	"sync"
	"time"

	"wats-sdk/internal/report"
)

// EventType 定义事件的类型
type EventType string

// 报告上传生命周期中的事件
const (
	ReportQueued    EventType = "ReportQueued"    // 进入离线队列
	ReportSubmitted EventType = "ReportSubmitted" // 服务端已接收
	ReportFailed    EventType = "ReportFailed"    // 提交失败，保留在队列中
	ReportSkipped   EventType = "ReportSkipped"   // 不满足提交规则
)

// Event 结构体定义了事件的数据负载
type Event struct {
	Type     EventType
	ReportID string
	Summary  report.Summary
	TraceID  string
	Duration time.Duration // 提交耗时 (仅提交相关事件)
	Error    error         // 错误信息 (仅失败事件)
}

// Handler 是事件处理函数的签名
type Handler func(e Event)

// Bus 是一个简单的内存事件总线
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus 创建一个新的事件总线实例
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe 订阅一个特定类型的事件
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish 发布一个事件，每个处理器在独立的 goroutine 中执行
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, handler := range b.handlers[e.Type] {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			handler(e)
		}()
	}
}

// Wait 等待所有已发布事件的处理器执行完毕
func (b *Bus) Wait() {
	b.wg.Wait()
}
