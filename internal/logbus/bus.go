package logbus

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type Entry struct {
	Time   int64          `json:"time"`
	Level  string         `json:"level"`
	Msg    string         `json:"msg"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Bus 是进程内日志总线：保留最近若干条日志，并支持挂接输出端。
// 签到工具是一次性进程，挂一个控制台 sink 即可；Snapshot 留给测试用。
type Bus struct {
	mu    sync.Mutex
	buf   []Entry
	cap   int
	sinks []func(Entry)
}

func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 200
	}
	return &Bus{
		cap: capacity,
		buf: make([]Entry, 0, capacity),
	}
}

// AttachConsole 把日志按 "15:04:05 [level] msg k=v" 的格式写到 w。
func (b *Bus) AttachConsole(w io.Writer) {
	b.Attach(func(e Entry) {
		fmt.Fprintln(w, FormatLine(e))
	})
}

func (b *Bus) Attach(sink func(Entry)) {
	b.mu.Lock()
	b.sinks = append(b.sinks, sink)
	b.mu.Unlock()
}

func (b *Bus) Snapshot() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.buf))
	copy(out, b.buf)
	return out
}

func (b *Bus) Log(level, msg string, fields map[string]any) {
	e := Entry{
		Time:   time.Now().UnixMilli(),
		Level:  level,
		Msg:    msg,
		Fields: fields,
	}

	b.mu.Lock()
	if len(b.buf) < b.cap {
		b.buf = append(b.buf, e)
	} else if b.cap > 0 {
		copy(b.buf, b.buf[1:])
		b.buf[b.cap-1] = e
	}
	sinks := b.sinks
	b.mu.Unlock()

	for _, sink := range sinks {
		sink(e)
	}
}

// FormatLine 渲染单条日志。字段按 key 排序，保证输出稳定。
func FormatLine(e Entry) string {
	var sb strings.Builder
	sb.WriteString(time.UnixMilli(e.Time).Format("15:04:05"))
	sb.WriteString(" [")
	sb.WriteString(e.Level)
	sb.WriteString("] ")
	sb.WriteString(e.Msg)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(" ")
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(fmt.Sprint(e.Fields[k]))
		}
	}
	return sb.String()
}
