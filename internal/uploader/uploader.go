package uploader

import (
	"container/heap"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wats-sdk/internal/event"
	"wats-sdk/internal/fsm"
	"wats-sdk/internal/metrics"
	"wats-sdk/internal/queue"
	"wats-sdk/internal/report"
	"wats-sdk/internal/rules"
	"wats-sdk/internal/util"
)

// Submitter 把序列化好的报告发送到服务端，由 api.ReportService 实现
type Submitter interface {
	SubmitRaw(ctx context.Context, payload []byte) error
}

// StateSink 接收报告状态变化，由 web.StateTracker 实现
type StateSink interface {
	AddReport(s report.Summary, priority int)
	UpdateReportState(id string, status fsm.State, errMsg string)
}

// Options 上传器的可选依赖，为 nil 的依赖不启用
type Options struct {
	MaxWorkers int         // 并发上传数，小于 1 时按 1 处理
	Rule       *rules.Rule // 提交规则，不满足的报告标记为 SKIPPED
	WAL        *queue.WAL  // 离线队列持久化
	Bus        *event.Bus
	State      StateSink
	Logger     *slog.Logger
}

// Uploader 维护一个优先级队列，控制并发把报告提交到服务端
// 提交失败的报告保留在 WAL 中，通过 Requeue 或下次 RecoverPending 重新提交
type Uploader struct {
	submitter Submitter
	opts      Options
	logger    *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	pq     priorityQueue
	failed []*item
	seq    uint64

	wg sync.WaitGroup
}

// New 创建一个新的 Uploader 实例
func New(submitter Submitter, opts Options) *Uploader {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	u := &Uploader{
		submitter: submitter,
		opts:      opts,
		logger:    logger.With("component", "uploader"),
	}
	u.cond = sync.NewCond(&u.mu)
	return u
}

// Enqueue 校验并序列化报告，写入 WAL 后放入队列，返回报告 ID
func (u *Uploader) Enqueue(r report.Report, priority int) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return u.enqueue(payload, report.Summarize(r), priority)
}

// EnqueueRaw 入队一份 WSJF 报告原文，原文不做修改直接提交
func (u *Uploader) EnqueueRaw(payload []byte, priority int) (string, error) {
	r, err := report.Decode(payload)
	if err != nil {
		return "", err
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	return u.enqueue(payload, report.Summarize(r), priority)
}

func (u *Uploader) enqueue(payload []byte, s report.Summary, priority int) (string, error) {
	p := &queue.Pending{
		ID:         s.ID,
		Type:       s.Type,
		Priority:   priority,
		EnqueuedAt: time.Now().UTC(),
		Payload:    payload,
	}
	if u.opts.WAL != nil {
		if err := u.opts.WAL.Append(p); err != nil {
			u.logger.Error("写入 WAL 失败", "error", err, "report_id", p.ID)
			return "", fmt.Errorf("persist report %s: %w", p.ID, err)
		}
	}
	u.push(p, s)
	return p.ID, nil
}

// RecoverPending 从 WAL 中恢复未上传的报告，返回恢复的数量
// 在 Start 之前调用；无法解析的报告会被标记完成并丢弃
func (u *Uploader) RecoverPending() (int, error) {
	if u.opts.WAL == nil {
		return 0, nil
	}
	pending, err := u.opts.WAL.Recover()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range pending {
		r, err := report.Decode(p.Payload)
		if err != nil {
			u.logger.Error("丢弃无法解析的报告", "report_id", p.ID, "error", err)
			_ = u.opts.WAL.Complete(p.ID)
			continue
		}
		u.logger.Info("重新加载未上传的报告", "report_id", p.ID)
		u.push(p, report.Summarize(r)) // 内部入队，不重复写 WAL
		n++
	}
	return n, nil
}

// push 将报告放入优先级队列并唤醒 worker
func (u *Uploader) push(p *queue.Pending, s report.Summary) {
	f := fsm.NewFSM(p.ID)
	it := &item{pending: p, summary: s, fsm: f}
	u.trackState(it)

	u.mu.Lock()
	defer u.mu.Unlock()
	u.seq++
	it.seq = u.seq
	heap.Push(&u.pq, it)
	metrics.ReportsInQueue.Inc()
	u.logger.Info("报告入队", "report_id", p.ID, "type", p.Type, "priority", p.Priority)
	u.publish(event.Event{Type: event.ReportQueued, ReportID: p.ID, Summary: s})
	u.cond.Signal()
}

// trackState 把状态机的每次状态变化同步到 StateSink
func (u *Uploader) trackState(it *item) {
	if u.opts.State == nil {
		return
	}
	u.opts.State.AddReport(it.summary, it.pending.Priority)
	for _, s := range []fsm.State{fsm.StateQueued, fsm.StateSubmitting, fsm.StateSubmitted, fsm.StateSkipped} {
		it.fsm.RegisterCallback(s, func(id string) {
			u.opts.State.UpdateReportState(id, s, "")
		})
	}
	it.fsm.RegisterCallback(fsm.StateFailed, func(id string) {
		u.opts.State.UpdateReportState(id, fsm.StateFailed, it.lastErr)
	})
}

// Len 返回队列中等待上传的报告数
func (u *Uploader) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pq.Len()
}

// Failed 返回提交失败、等待重新入队的报告数
func (u *Uploader) Failed() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.failed)
}

// Requeue 把提交失败的报告重新放回队列，返回重新入队的数量
func (u *Uploader) Requeue() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	items := u.failed
	u.failed = nil
	for _, it := range items {
		if err := it.fsm.Fire(fsm.EventRequeue); err != nil {
			u.logger.Error("状态转换失败", "report_id", it.pending.ID, "error", err)
			continue
		}
		u.seq++
		it.seq = u.seq
		heap.Push(&u.pq, it)
		metrics.ReportsInQueue.Inc()
		u.cond.Signal()
	}
	if len(items) > 0 {
		u.logger.Info("失败报告重新入队", "count", len(items))
	}
	return len(items)
}

// pop 取出优先级最高的报告，队列为空时返回 nil
func (u *Uploader) pop() *item {
	if u.pq.Len() == 0 {
		return nil
	}
	it := heap.Pop(&u.pq).(*item)
	metrics.ReportsInQueue.Dec()
	return it
}

// Start 启动调度循环，阻塞直到 ctx 取消
func (u *Uploader) Start(ctx context.Context) {
	workerPool := make(chan struct{}, u.opts.MaxWorkers)

	// 监听上下文取消信号，唤醒所有等待中的调度循环以便退出
	stop := context.AfterFunc(ctx, func() {
		u.mu.Lock()
		u.cond.Broadcast()
		u.mu.Unlock()
	})
	defer stop()

	for {
		u.mu.Lock()
		for u.pq.Len() == 0 && ctx.Err() == nil {
			u.cond.Wait()
		}
		if ctx.Err() != nil {
			u.mu.Unlock()
			return
		}
		it := u.pop()
		u.mu.Unlock()

		// 获取 worker 凭证（控制并发数）
		select {
		case workerPool <- struct{}{}:
		case <-ctx.Done():
			u.mu.Lock()
			heap.Push(&u.pq, it)
			metrics.ReportsInQueue.Inc()
			u.mu.Unlock()
			return
		}
		u.wg.Add(1)
		go func() {
			defer u.wg.Done()
			defer func() { <-workerPool }()
			_ = u.process(ctx, it)
		}()
	}
}

// Flush 同步提交当前队列中的所有报告，最多 MaxWorkers 个并发
// 返回所有失败提交的错误
func (u *Uploader) Flush(ctx context.Context) error {
	u.mu.Lock()
	items := make([]*item, 0, u.pq.Len())
	for it := u.pop(); it != nil; it = u.pop() {
		items = append(items, it)
	}
	u.mu.Unlock()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(u.opts.MaxWorkers)
	for _, it := range items {
		g.Go(func() error {
			if err := u.process(ctx, it); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("report %s: %w", it.pending.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// WaitForCompletion 等待所有正在执行的上传完成，用于优雅停机
func (u *Uploader) WaitForCompletion() {
	u.wg.Wait()
}

// process 让一份报告走完 SUBMITTING -> SUBMITTED | FAILED，或直接 SKIPPED
func (u *Uploader) process(ctx context.Context, it *item) error {
	p := it.pending
	// 生成 Trace ID 并注入 Context，用于全链路追踪
	traceID := util.NewTraceID()
	ctx = util.ContextWithTraceID(ctx, traceID)
	logger := u.logger.With("report_id", p.ID, "trace_id", traceID)

	submit, err := u.opts.Rule.Match(it.summary)
	if err != nil {
		logger.Error("提交规则评估失败，按提交处理", "error", err, "rule", u.opts.Rule.String())
		submit = true
	}
	if !submit {
		u.complete(p.ID, logger)
		if err := it.fsm.Fire(fsm.EventSkip); err != nil {
			return err
		}
		logger.Info("不满足提交规则，跳过", "rule", u.opts.Rule.String())
		u.publish(event.Event{Type: event.ReportSkipped, ReportID: p.ID, Summary: it.summary, TraceID: traceID})
		return nil
	}

	if err := it.fsm.Fire(fsm.EventSubmit); err != nil {
		return err
	}
	start := time.Now()
	err = u.submitter.SubmitRaw(ctx, p.Payload)
	duration := time.Since(start)
	if err != nil {
		// 与 Requeue 互斥，状态变为 FAILED 时报告已经在 failed 列表中
		u.mu.Lock()
		it.lastErr = err.Error()
		_ = it.fsm.Fire(fsm.EventReject)
		u.failed = append(u.failed, it)
		u.mu.Unlock()
		logger.Warn("报告提交失败，保留在离线队列中", "error", err)
		u.publish(event.Event{Type: event.ReportFailed, ReportID: p.ID, Summary: it.summary, TraceID: traceID, Duration: duration, Error: err})
		return err
	}

	u.complete(p.ID, logger)
	_ = it.fsm.Fire(fsm.EventAccept)
	logger.Info("报告提交成功", "duration", duration.Seconds())
	u.publish(event.Event{Type: event.ReportSubmitted, ReportID: p.ID, Summary: it.summary, TraceID: traceID, Duration: duration})
	return nil
}

// complete 在 WAL 中标记报告已处理完毕
func (u *Uploader) complete(id string, logger *slog.Logger) {
	if u.opts.WAL == nil {
		return
	}
	if err := u.opts.WAL.Complete(id); err != nil {
		logger.Error("标记 WAL 完成失败", "error", err)
	}
}

func (u *Uploader) publish(e event.Event) {
	if u.opts.Bus != nil {
		u.opts.Bus.Publish(e)
	}
}
