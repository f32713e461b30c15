package model

import "time"

type OutcomeKind string

const (
	// OutcomeSuccess 本次签到成功。
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeAlreadyDone 今日已经签过，接口返回“已签”类提示。
	OutcomeAlreadyDone OutcomeKind = "already_done"
	// OutcomeFailure 任一阶段失败（配置缺失、网络、状态码、formhash 缺失、接口报错）。
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome 是一次签到流程的最终结果。Detail 携带接口原始返回或错误描述，
// 会原样进入通知正文的代码块里。
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Detail   string      `json:"detail,omitempty"`
	Username string      `json:"username,omitempty"`
	UID      string      `json:"uid,omitempty"`
	RunID    string      `json:"runId,omitempty"`
	At       time.Time   `json:"at"`
}

func (o Outcome) Success() bool     { return o.Kind == OutcomeSuccess }
func (o Outcome) AlreadyDone() bool { return o.Kind == OutcomeAlreadyDone }

// Title 返回通知标题，与原接口提示语保持一致。
func (o Outcome) Title() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "T00ls 签到成功"
	case OutcomeAlreadyDone:
		return "T00ls 今日已签到"
	default:
		return "T00ls 签到失败"
	}
}
