package logbus

import (
	"strings"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	b := New(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		b.Log("info", msg, nil)
	}

	got := b.Snapshot()
	if len(got) != 3 {
		t.Fatalf("快照长度 = %d，期望 3", len(got))
	}
	if got[0].Msg != "b" || got[2].Msg != "d" {
		t.Fatalf("环形缓冲应丢最旧一条：%+v", got)
	}
}

func TestSinkReceivesEntries(t *testing.T) {
	b := New(10)
	var lines []string
	b.Attach(func(e Entry) {
		lines = append(lines, FormatLine(e))
	})

	b.Log("warn", "签到失败", map[string]any{"status": 502, "attempt": 1})
	if len(lines) != 1 {
		t.Fatalf("sink 收到 %d 条", len(lines))
	}
	line := lines[0]
	if !strings.Contains(line, "[warn] 签到失败") {
		t.Fatalf("行格式不符合预期：%q", line)
	}
	// 字段按 key 排序输出。
	if !strings.Contains(line, "attempt=1 status=502") {
		t.Fatalf("字段顺序不稳定：%q", line)
	}
}
