package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
)

// 本地 mock 论坛：提供 login.json / members-profile.json / ajax-sign.json
// 三个接口，行为对齐真实站点的怪癖——登录时会话 cookie 放在 JSON 体里
// （值做百分号编码），资料页返回嵌着 "uid"/"formhash" 的文本。
// 把 T00LS_BASE_URL 指到这里就能端到端跑一遍签到。
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	srv := &mockForum{
		formhash: randString(8),
		sessions: map[string]string{},
		signed:   map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login.json", srv.handleLogin)
	mux.HandleFunc("/members-profile.json", srv.handleProfile)
	mux.HandleFunc("/ajax-sign.json", srv.handleSign)

	log.Printf("mock forum listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

type mockForum struct {
	mu       sync.Mutex
	formhash string
	sessions map[string]string // 会话值 → 用户名
	signed   map[string]bool   // 用户名 → 今天是否已签
}

func (m *mockForum) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	w.Header().Set("Content-Type", "application/json")
	if username == "" || password == "" {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "fail",
			"message": "用户名或密码错误",
		})
		return
	}

	m.mu.Lock()
	auth := randString(16)
	m.sessions[auth] = username
	formhash := m.formhash
	m.mu.Unlock()

	// 会话 cookie 只放 JSON 体，值按真实站点习惯做百分号编码。
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "success",
		"formhash": formhash,
		"cookie": map[string]string{
			"t00ls_auth": url.QueryEscape(auth + "|" + username),
		},
	})
}

func (m *mockForum) handleProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := m.authed(r)
	if !ok {
		http.Error(w, "login required", http.StatusForbidden)
		return
	}

	m.mu.Lock()
	formhash := m.formhash
	m.mu.Unlock()

	uid := 10000 + int(crc8(username))
	// 资料页内容类型故意不稳定，客户端应当按文本做模式匹配。
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<script>var profile = {"uid":"%d","username":"%s","formhash":"%s"};</script>`,
		uid, username, formhash)
}

func (m *mockForum) handleSign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username, ok := m.authed(r)
	if !ok {
		http.Error(w, "login required", http.StatusForbidden)
		return
	}
	_ = r.ParseForm()

	w.Header().Set("Content-Type", "application/json")

	m.mu.Lock()
	defer m.mu.Unlock()
	if r.PostFormValue("signsubmit") != "apply" || r.PostFormValue("formhash") != m.formhash {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "fail",
			"message": "formhash 校验失败",
		})
		return
	}
	if m.signed[username] {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "fail",
			"message": "alreadysign：今日已签到",
		})
		return
	}
	m.signed[username] = true
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("签到成功，获得 %d 个 TuBi", 1+rand.Intn(10)),
	})
}

func (m *mockForum) authed(r *http.Request) (string, bool) {
	c, err := r.Cookie("t00ls_auth")
	if err != nil {
		return "", false
	}
	value := c.Value
	if decoded, err := url.QueryUnescape(value); err == nil {
		value = decoded
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for auth, username := range m.sessions {
		if value == auth+"|"+username {
			return username, true
		}
	}
	return "", false
}

const letters = "abcdefghijklmnopqrstuvwxyz0123456789"

func randString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func crc8(s string) byte {
	var sum byte
	for i := 0; i < len(s); i++ {
		sum = sum*31 + s[i]
	}
	return sum
}
