package forum

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"t00ls_checkin/internal/config"
	"t00ls_checkin/internal/logbus"
)

// Options 控制会话的传输层行为。RetryWaitUnit 默认 1 秒，
// 第 n 次失败后等待 n 个单位再重试（线性退避），测试里可以调小；
// RoundTripper 留给测试注入假传输层。
type Options struct {
	Forum         config.ForumConfig
	Proxy         config.ProxyConfig
	Bus           *logbus.Bus
	RetryWaitUnit time.Duration
	RoundTripper  http.RoundTripper
}

// Session 持有一次签到流程用的 HTTP 客户端和 cookie jar。
// 单流程单协程使用，cookie 随每次请求累积，进程结束即丢弃。
type Session struct {
	cfg     config.ForumConfig
	bus     *logbus.Bus
	client  *resty.Client
	jar     *cookiejar.Jar
	baseURL *url.URL
	limiter *rate.Limiter
}

func NewSession(opts Options) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(opts.Forum.BaseURL)
	if err != nil {
		return nil, err
	}

	waitUnit := opts.RetryWaitUnit
	if waitUnit <= 0 {
		waitUnit = time.Second
	}

	client := resty.New()
	if opts.RoundTripper != nil {
		client.SetTransport(opts.RoundTripper)
	}
	client.
		SetBaseURL(opts.Forum.BaseURL).
		SetTimeout(opts.Forum.Timeout()).
		SetCookieJar(jar).
		SetHeader("User-Agent", opts.Forum.UserAgent).
		SetRetryCount(opts.Forum.RetryBudget() - 1).
		AddRetryCondition(func(_ *resty.Response, err error) bool {
			// 只重试传输层失败（连接失败、超时）。非 2xx 状态码
			// 原样返回，由各阶段按协议错误处理。
			return err != nil
		}).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			return time.Duration(r.Request.Attempt) * waitUnit, nil
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			if opts.Bus != nil && err != nil {
				opts.Bus.Log("warn", "请求失败，准备重试", map[string]any{
					"attempt": r.Request.Attempt,
					"retries": opts.Forum.RetryBudget(),
					"method":  r.Request.Method,
					"url":     r.Request.URL,
					"error":   err.Error(),
				})
			}
		})

	if proxy := opts.Proxy.For(opts.Forum.BaseURL); proxy != "" {
		client.SetProxy(proxy)
	}

	s := &Session{
		cfg:     opts.Forum,
		bus:     opts.Bus,
		client:  client,
		jar:     jar,
		baseURL: base,
		// 论坛侧限速：签到只打三个接口，2 QPS 足够宽松，又不会
		// 在重试风暴时触发风控。
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if err := s.limiter.Wait(req.Context()); err != nil {
			return err
		}
		if s.bus != nil {
			s.bus.Log("debug", "http request", map[string]any{
				"method": req.Method,
				"url":    req.URL,
			})
		}
		return nil
	})

	return s, nil
}

// CookieDomain 返回 JSON 体 cookie 注入时使用的域。站点通常把会话
// cookie 挂在主域（.t00ls.com）；对 IP、localhost 这类没有注册域的
// host（比如本地 mock）返回空串，走 host-only cookie。
func (s *Session) CookieDomain() string {
	host := s.baseURL.Hostname()
	if !strings.Contains(host, ".") || isIPHost(host) {
		return ""
	}
	host = strings.TrimPrefix(host, "www.")
	return "." + host
}

// Cookies 返回当前会话对站点根路径可见的 cookie，测试用。
func (s *Session) Cookies() map[string]string {
	u := *s.baseURL
	u.Path = "/"
	out := map[string]string{}
	for _, c := range s.jar.Cookies(&u) {
		out[c.Name] = c.Value
	}
	return out
}

func isIPHost(host string) bool {
	for _, r := range host {
		if r != '.' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func snippet(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
