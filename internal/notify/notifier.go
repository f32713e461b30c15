package notify

import (
	"context"
	"fmt"

	"t00ls_checkin/internal/model"
)

// Notifier 把一条标题+正文的消息送到某个通知渠道。实现不允许向上
// 抛错误：通知失败只记日志，绝不能盖过签到本身的结果。
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}

// Multi 依次调用每个渠道。
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, body string) {
	for _, n := range m {
		n.Notify(ctx, title, body)
	}
}

// BuildBody 按结果类型拼通知正文，格式沿用接口提示语：
// 成功/已签 带接口原始返回，失败带错误信息。
func BuildBody(o model.Outcome) string {
	switch o.Kind {
	case model.OutcomeSuccess:
		return fmt.Sprintf("**接口返回**：\n\n```\n%s\n```", o.Detail)
	case model.OutcomeAlreadyDone:
		return fmt.Sprintf("**接口返回**：\n\n```\n%s\n```\n\n> 提示：接口提示已签过。", o.Detail)
	default:
		return fmt.Sprintf("**错误信息**：\n\n```\n%s\n```", o.Detail)
	}
}
