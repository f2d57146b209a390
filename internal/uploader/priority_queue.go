package uploader

import (
	"wats-sdk/internal/fsm"
	"wats-sdk/internal/queue"
	"wats-sdk/internal/report"
)

// item 是优先级队列中的元素，包装了一份待上传的报告
type item struct {
	pending *queue.Pending
	summary report.Summary
	fsm     *fsm.FSM
	lastErr string // 最近一次提交失败的原因
	seq     uint64 // 入队序号，同优先级时先进先出
	index   int    // 元素在堆中的索引
}

// priorityQueue 实现了 heap.Interface 接口
type priorityQueue []*item

func (pq priorityQueue) Len() int { return len(pq) }

// Less 高优先级先出；优先级相同时按入队顺序
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].pending.Priority != pq[j].pending.Priority {
		return pq[i].pending.Priority > pq[j].pending.Priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	it := x.(*item)
	it.index = len(*pq)
	*pq = append(*pq, it)
}

// Pop 移除并返回堆尾元素，由 container/heap 调用
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // 避免内存泄漏
	it.index = -1
	*pq = old[:n-1]
	return it
}
