package notify

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"gopkg.in/gomail.v2"

	"t00ls_checkin/internal/logbus"
	"t00ls_checkin/internal/model"
)

// Email 把签到结果抄送到邮箱，自己发给自己。SMTP 服务器按邮箱域名
// 推断，密码用各家邮箱的授权码。属于可选渠道，失败同样只记日志。
type Email struct {
	settings model.EmailSettings
	bus      *logbus.Bus

	// send 是测试缝，默认走 gomail 真实投递。
	send func(settings model.EmailSettings, msg *gomail.Message) error
}

func NewEmail(settings model.EmailSettings, bus *logbus.Bus) *Email {
	return &Email{
		settings: settings,
		bus:      bus,
		send:     dialAndSend,
	}
}

func (e *Email) Notify(ctx context.Context, title, body string) {
	if !e.settings.Enabled {
		return
	}
	if err := ValidateEmailSettings(e.settings); err != nil {
		e.log("warn", "邮件配置无效", map[string]any{"error": err.Error()})
		return
	}
	if err := ctx.Err(); err != nil {
		e.log("warn", "邮件通知取消", map[string]any{"error": err.Error()})
		return
	}

	address := strings.TrimSpace(e.settings.Email)
	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(address, "签到助手"))
	msg.SetHeader("To", address)
	msg.SetHeader("Subject", title)
	msg.SetBody("text/plain", title+"\n\n"+stripMarkdown(body))

	if err := e.send(e.settings, msg); err != nil {
		e.log("warn", "邮件发送失败", map[string]any{"error": err.Error(), "to": address})
		return
	}
	e.log("info", "通知邮件已发送", map[string]any{"to": address})
}

func dialAndSend(settings model.EmailSettings, msg *gomail.Message) error {
	address := strings.TrimSpace(settings.Email)
	host, port, useSSL, err := SMTPConfigForEmail(address)
	if err != nil {
		return err
	}
	d := gomail.NewDialer(host, port, address, strings.TrimSpace(settings.AuthCode))
	d.SSL = useSSL
	return d.DialAndSend(msg)
}

func ValidateEmailSettings(s model.EmailSettings) error {
	email := strings.TrimSpace(s.Email)
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email")
	}
	if strings.TrimSpace(s.AuthCode) == "" {
		return errors.New("authCode is required")
	}
	return nil
}

// SMTPConfigForEmail 按邮箱域名推断 SMTP 接入点。国内邮箱普遍走
// 465 SSL，gmail/outlook 走 587 STARTTLS，未知域名按惯例猜
// smtp.{domain}:465。
func SMTPConfigForEmail(email string) (host string, port int, useSSL bool, err error) {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", 0, false, errors.New("invalid email format")
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))

	switch {
	case domain == "qq.com" || domain == "foxmail.com":
		return "smtp.qq.com", 465, true, nil
	case domain == "163.com" || domain == "126.com" || domain == "yeah.net":
		return "smtp.163.com", 465, true, nil
	case domain == "gmail.com":
		return "smtp.gmail.com", 587, false, nil
	case domain == "outlook.com" || domain == "hotmail.com" || domain == "live.com":
		return "smtp.office365.com", 587, false, nil
	case domain == "aliyun.com":
		return "smtp.aliyun.com", 465, true, nil
	default:
		return "smtp." + domain, 465, true, nil
	}
}

// stripMarkdown 去掉正文里的 markdown 记号，纯文本邮件直接看内容。
func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.ReplaceAll(s, "> ", "")
	return strings.TrimSpace(s)
}

func (e *Email) log(level, msg string, fields map[string]any) {
	if e.bus != nil {
		e.bus.Log(level, msg, fields)
	}
}
