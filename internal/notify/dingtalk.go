package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"t00ls_checkin/internal/config"
	"t00ls_checkin/internal/logbus"
)

const defaultWebhookBase = "https://oapi.dingtalk.com/robot/send"

// DingTalk 往钉钉机器人 webhook 推 markdown 消息。机器人开了
// “加签”校验时需要带 timestamp + sign 查询参数。
type DingTalk struct {
	cfg   config.DingTalkConfig
	proxy config.ProxyConfig
	bus   *logbus.Bus

	// base 与 now 是测试缝：默认指向钉钉官方地址和系统时钟。
	base string
	now  func() time.Time
}

func NewDingTalk(cfg config.DingTalkConfig, proxy config.ProxyConfig, bus *logbus.Bus) *DingTalk {
	return &DingTalk{
		cfg:   cfg,
		proxy: proxy,
		bus:   bus,
		base:  defaultWebhookBase,
		now:   time.Now,
	}
}

type markdownMessage struct {
	Msgtype  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

type webhookReply struct {
	Errcode int    `json:"errcode"`
	Errmsg  string `json:"errmsg"`
}

// Notify 发送一条消息。没配 token 时静默跳过；任何失败只记日志。
// 通知用独立的 10 秒超时，不跟随论坛请求的超时配置。
func (d *DingTalk) Notify(ctx context.Context, title, body string) {
	if d.cfg.AccessToken == "" {
		d.log("info", "未配置 DD_ACCESS_TOKEN，跳过钉钉通知", nil)
		return
	}

	webhook := d.base + "?access_token=" + url.QueryEscape(d.cfg.AccessToken)
	if d.cfg.Secret != "" {
		ts := d.now().UnixMilli()
		webhook = fmt.Sprintf("%s&timestamp=%d&sign=%s", webhook, ts, Sign(d.cfg.Secret, ts))
	}

	var msg markdownMessage
	msg.Msgtype = "markdown"
	msg.Markdown.Title = title
	msg.Markdown.Text = fmt.Sprintf("### %s\n\n%s", title, body)
	payload, err := json.Marshal(msg)
	if err != nil {
		d.log("warn", "钉钉消息序列化失败", map[string]any{"error": err.Error()})
		return
	}

	client := resty.New().SetTimeout(10 * time.Second)
	if proxy := d.proxy.For(webhook); proxy != "" {
		client.SetProxy(proxy)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json;charset=utf-8").
		SetBody(payload).
		Post(webhook)
	if err != nil {
		d.log("warn", "钉钉通知异常", map[string]any{"error": err.Error()})
		return
	}

	var reply webhookReply
	_ = json.Unmarshal(resp.Body(), &reply)
	if resp.StatusCode() != 200 || reply.Errcode != 0 {
		d.log("warn", "钉钉通知失败", map[string]any{
			"status":  resp.StatusCode(),
			"errcode": reply.Errcode,
			"errmsg":  reply.Errmsg,
		})
		return
	}
	d.log("info", "钉钉通知成功", nil)
}

// Sign 计算加签参数：对 "{ts}\n{secret}" 做 HMAC-SHA256（密钥也是
// secret），base64 后再做 URL 编码。
func Sign(secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d\n%s", ts, secret)
	digest := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return url.QueryEscape(digest)
}

func (d *DingTalk) log(level, msg string, fields map[string]any) {
	if d.bus != nil {
		d.bus.Log(level, msg, fields)
	}
}
