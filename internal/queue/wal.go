package queue

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

// ErrClosed WAL 已关闭
var ErrClosed = errors.New("wal is closed")

const (
	entryReport   = "REPORT"
	entryComplete = "COMPLETE"
)

// Pending 等待上传的一份报告
type Pending struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"` // T | R
	Priority   int             `json:"priority"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Payload    json.RawMessage `json:"payload"` // WSJF 报告原文
}

// logEntry 代表 WAL 文件中的一条日志记录
type logEntry struct {
	Type     string   `json:"type"`                // REPORT (新报告) 或 COMPLETE (已上传或已跳过)
	Report   *Pending `json:"report,omitempty"`    // 新报告的完整数据
	ReportID string   `json:"report_id,omitempty"` // 已完成报告的 ID
}

// WAL (Write-Ahead Log) 持久化离线队列，进程重启后可以恢复未上传的报告
type WAL struct {
	file *os.File   // 日志文件句柄
	mu   sync.Mutex // 互斥锁，保证文件写入的原子性
}

// Open 创建或打开一个 WAL 文件
func Open(path string) (*WAL, error) {
	// O_APPEND: 追加写入, O_CREATE: 文件不存在则创建, O_RDWR: 读写模式
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &WAL{file: file}, nil
}

// Append 将一份待上传的报告写入日志
func (w *WAL) Append(p *Pending) error {
	return w.write(logEntry{Type: entryReport, Report: p})
}

// Complete 在日志中标记一份报告已处理完毕，不再需要恢复
func (w *WAL) Complete(reportID string) error {
	return w.write(logEntry{Type: entryComplete, ReportID: reportID})
}

func (w *WAL) write(entry logEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	// 写入数据并在末尾添加换行符
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return err
	}
	// 确保数据被刷新到磁盘，防止数据丢失
	return w.file.Sync()
}

// Recover 从日志文件中恢复未完成的报告，按写入顺序返回
// 同一 ID 多次写入时以最后一次为准；损坏的行被跳过
func (w *WAL) Recover() ([]*Pending, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil, ErrClosed
	}

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var order []string
	pending := make(map[string]*Pending)
	completed := make(map[string]bool)

	scanner := bufio.NewScanner(w.file)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024) // 报告可能带有较大的附件
	for scanner.Scan() {
		var entry logEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}

		switch entry.Type {
		case entryReport:
			if entry.Report == nil || entry.Report.ID == "" {
				continue
			}
			if _, seen := pending[entry.Report.ID]; !seen {
				order = append(order, entry.Report.ID)
			}
			pending[entry.Report.ID] = entry.Report
			delete(completed, entry.Report.ID)
		case entryComplete:
			completed[entry.ReportID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var recovered []*Pending
	for _, id := range order {
		if !completed[id] {
			recovered = append(recovered, pending[id])
		}
	}

	// 恢复文件指针到末尾，以便后续追加写入
	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	return recovered, nil
}

// Close 关闭 WAL 文件
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
