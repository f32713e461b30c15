package notify

import (
	"context"
	"errors"
	"testing"

	"gopkg.in/gomail.v2"

	"t00ls_checkin/internal/logbus"
	"t00ls_checkin/internal/model"
)

func TestSMTPConfigForEmail(t *testing.T) {
	cases := []struct {
		email   string
		host    string
		port    int
		ssl     bool
		wantErr bool
	}{
		{email: "a@qq.com", host: "smtp.qq.com", port: 465, ssl: true},
		{email: "a@163.com", host: "smtp.163.com", port: 465, ssl: true},
		{email: "a@gmail.com", host: "smtp.gmail.com", port: 587, ssl: false},
		{email: "a@outlook.com", host: "smtp.office365.com", port: 587, ssl: false},
		{email: "a@corp.example.cn", host: "smtp.corp.example.cn", port: 465, ssl: true},
		{email: "not-an-email", wantErr: true},
	}
	for _, tc := range cases {
		host, port, ssl, err := SMTPConfigForEmail(tc.email)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s 应报错", tc.email)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.email, err)
		}
		if host != tc.host || port != tc.port || ssl != tc.ssl {
			t.Fatalf("%s → %s:%d ssl=%v，期望 %s:%d ssl=%v", tc.email, host, port, ssl, tc.host, tc.port, tc.ssl)
		}
	}
}

func TestValidateEmailSettings(t *testing.T) {
	if err := ValidateEmailSettings(model.EmailSettings{Email: "a@qq.com", AuthCode: "c"}); err != nil {
		t.Fatalf("合法配置不应报错：%v", err)
	}
	if err := ValidateEmailSettings(model.EmailSettings{Email: "", AuthCode: "c"}); err == nil {
		t.Fatal("空邮箱应报错")
	}
	if err := ValidateEmailSettings(model.EmailSettings{Email: "broken", AuthCode: "c"}); err == nil {
		t.Fatal("非法邮箱应报错")
	}
	if err := ValidateEmailSettings(model.EmailSettings{Email: "a@qq.com"}); err == nil {
		t.Fatal("缺授权码应报错")
	}
}

func TestEmailNotifySendFailureOnlyLogged(t *testing.T) {
	bus := logbus.New(10)
	e := NewEmail(model.EmailSettings{Enabled: true, Email: "a@qq.com", AuthCode: "code"}, bus)
	e.send = func(_ model.EmailSettings, _ *gomail.Message) error {
		return errors.New("dial failed")
	}

	e.Notify(context.Background(), "标题", "正文")

	found := false
	for _, entry := range bus.Snapshot() {
		if entry.Msg == "邮件发送失败" {
			found = true
		}
	}
	if !found {
		t.Fatal("发送失败应记日志")
	}
}

func TestEmailNotifyDisabledDoesNothing(t *testing.T) {
	e := NewEmail(model.EmailSettings{}, nil)
	called := false
	e.send = func(_ model.EmailSettings, _ *gomail.Message) error {
		called = true
		return nil
	}
	e.Notify(context.Background(), "t", "b")
	if called {
		t.Fatal("未启用时不应投递")
	}
}

func TestBuildBody(t *testing.T) {
	success := BuildBody(model.Outcome{Kind: model.OutcomeSuccess, Detail: `{"status":"success"}`})
	if success != "**接口返回**：\n\n```\n{\"status\":\"success\"}\n```" {
		t.Fatalf("成功正文不符合预期：%q", success)
	}

	already := BuildBody(model.Outcome{Kind: model.OutcomeAlreadyDone, Detail: "d"})
	if already != "**接口返回**：\n\n```\nd\n```\n\n> 提示：接口提示已签过。" {
		t.Fatalf("已签正文不符合预期：%q", already)
	}

	failure := BuildBody(model.Outcome{Kind: model.OutcomeFailure, Detail: "boom"})
	if failure != "**错误信息**：\n\n```\nboom\n```" {
		t.Fatalf("失败正文不符合预期：%q", failure)
	}
}
