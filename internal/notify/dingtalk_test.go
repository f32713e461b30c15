package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"t00ls_checkin/internal/config"
	"t00ls_checkin/internal/logbus"
)

func TestSignDeterministic(t *testing.T) {
	// 参考值：HMAC-SHA256("1693363200000\nSEC1", key=SEC1) → base64 → URL 编码。
	const want = "%2FPsU8lNAYiGpV6USMolmw51lJ6SMyg2cskpIrpUsKUg%3D"
	got := Sign("SEC1", 1693363200000)
	if got != want {
		t.Fatalf("Sign = %q，期望 %q", got, want)
	}
	// 同入参必须稳定。
	if again := Sign("SEC1", 1693363200000); again != got {
		t.Fatalf("签名不稳定：%q vs %q", got, again)
	}
}

func TestNotifySkipsWithoutToken(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
	}))
	defer srv.Close()

	bus := logbus.New(10)
	d := NewDingTalk(config.DingTalkConfig{}, config.ProxyConfig{}, bus)
	d.base = srv.URL
	d.Notify(context.Background(), "标题", "正文")

	mu.Lock()
	defer mu.Unlock()
	if hits != 0 {
		t.Fatalf("未配置 token 不应发请求，实际发了 %d 个", hits)
	}

	found := false
	for _, e := range bus.Snapshot() {
		if strings.Contains(e.Msg, "跳过钉钉通知") {
			found = true
		}
	}
	if !found {
		t.Fatal("应记录跳过日志")
	}
}

func TestNotifyRequestShape(t *testing.T) {
	type seenReq struct {
		query       string
		contentType string
		body        []byte
	}
	var (
		mu   sync.Mutex
		seen seenReq
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = seenReq{
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	bus := logbus.New(10)
	d := NewDingTalk(config.DingTalkConfig{AccessToken: "tok123", Secret: "SEC1"}, config.ProxyConfig{}, bus)
	d.base = srv.URL
	d.now = func() time.Time { return time.UnixMilli(1693363200000) }

	d.Notify(context.Background(), "T00ls 签到成功", "**接口返回**：ok")

	mu.Lock()
	defer mu.Unlock()

	if !strings.Contains(seen.query, "access_token=tok123") {
		t.Fatalf("query 缺少 access_token：%q", seen.query)
	}
	if !strings.Contains(seen.query, "timestamp=1693363200000") {
		t.Fatalf("query 缺少 timestamp：%q", seen.query)
	}
	if !strings.Contains(seen.query, "sign=%2FPsU8lNAYiGpV6USMolmw51lJ6SMyg2cskpIrpUsKUg%3D") {
		t.Fatalf("query 签名不符合预期：%q", seen.query)
	}
	if seen.contentType != "application/json;charset=utf-8" {
		t.Fatalf("Content-Type = %q", seen.contentType)
	}

	var msg struct {
		Msgtype  string `json:"msgtype"`
		Markdown struct {
			Title string `json:"title"`
			Text  string `json:"text"`
		} `json:"markdown"`
	}
	if err := json.Unmarshal(seen.body, &msg); err != nil {
		t.Fatalf("请求体不是 JSON：%v", err)
	}
	if msg.Msgtype != "markdown" {
		t.Fatalf("msgtype = %q", msg.Msgtype)
	}
	if msg.Markdown.Title != "T00ls 签到成功" {
		t.Fatalf("title = %q", msg.Markdown.Title)
	}
	if want := "### T00ls 签到成功\n\n**接口返回**：ok"; msg.Markdown.Text != want {
		t.Fatalf("text = %q，期望 %q", msg.Markdown.Text, want)
	}
}

func TestNotifyWithoutSecretOmitsSign(t *testing.T) {
	var (
		mu    sync.Mutex
		query string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		query = r.URL.RawQuery
		mu.Unlock()
		_, _ = w.Write([]byte(`{"errcode":0}`))
	}))
	defer srv.Close()

	d := NewDingTalk(config.DingTalkConfig{AccessToken: "tok123"}, config.ProxyConfig{}, nil)
	d.base = srv.URL
	d.Notify(context.Background(), "t", "b")

	mu.Lock()
	defer mu.Unlock()
	if strings.Contains(query, "sign=") || strings.Contains(query, "timestamp=") {
		t.Fatalf("未配置 secret 不应带加签参数：%q", query)
	}
}

func TestNotifyErrcodeFailureOnlyLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
	}))
	defer srv.Close()

	bus := logbus.New(10)
	d := NewDingTalk(config.DingTalkConfig{AccessToken: "tok"}, config.ProxyConfig{}, bus)
	d.base = srv.URL

	// errcode 非 0：只记日志，不升级为错误。
	d.Notify(context.Background(), "t", "b")

	found := false
	for _, e := range bus.Snapshot() {
		if e.Msg == "钉钉通知失败" {
			found = true
		}
	}
	if !found {
		t.Fatal("errcode 非 0 应记失败日志")
	}
}

func TestNotifyTransportFailureOnlyLogged(t *testing.T) {
	bus := logbus.New(10)
	d := NewDingTalk(config.DingTalkConfig{AccessToken: "tok"}, config.ProxyConfig{}, bus)
	d.base = "http://127.0.0.1:1"

	d.Notify(context.Background(), "t", "b")

	found := false
	for _, e := range bus.Snapshot() {
		if e.Msg == "钉钉通知异常" {
			found = true
		}
	}
	if !found {
		t.Fatal("传输失败应记异常日志")
	}
}
