package checkin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"t00ls_checkin/internal/forum"
	"t00ls_checkin/internal/logbus"
	"t00ls_checkin/internal/model"
)

// Stage 标识签到流程的阶段，严格顺序执行，任一阶段出错即终止。
type Stage string

const (
	StageLogin   Stage = "login"
	StageProfile Stage = "profile"
	StageSign    Stage = "sign"
)

const (
	msgMissingCredentials = "缺少必要环境变量：T00LS_USERNAME / T00LS_PASSWORD"
	msgFormhashNotFound   = "未提取到 formhash（登录/资料页均未返回）"
)

type Workflow struct {
	opts forum.Options
	bus  *logbus.Bus
}

func New(opts forum.Options) *Workflow {
	return &Workflow{opts: opts, bus: opts.Bus}
}

// Run 执行一次完整签到：前置校验 → 登录 → 资料页 → 签到 → 归类。
// 任何错误都收敛为 Failure 结果返回，不向上抛；通知和落库由调用方做。
func (w *Workflow) Run(ctx context.Context, account model.Account) model.Outcome {
	out := model.Outcome{
		Kind:     model.OutcomeFailure,
		Username: account.Username,
		RunID:    uuid.NewString(),
		At:       time.Now(),
	}

	// 前置校验失败不发任何网络请求。
	if !account.Valid() {
		out.Detail = msgMissingCredentials
		w.log("warn", "前置校验失败", out, nil)
		return out
	}

	sess, err := forum.NewSession(w.opts)
	if err != nil {
		out.Detail = err.Error()
		w.log("warn", "会话构建失败", out, map[string]any{"error": err.Error()})
		return out
	}

	login, err := sess.Login(ctx, account)
	if err != nil {
		return w.fail(out, StageLogin, err)
	}

	profile, err := sess.FetchProfile(ctx)
	if err != nil {
		return w.fail(out, StageProfile, err)
	}
	out.UID = profile.UID

	// formhash 优先取资料页，缺失时退回登录响应里的值。
	formhash := profile.Formhash
	if formhash == "" {
		formhash = login.Formhash
	}
	if formhash == "" {
		out.Detail = msgFormhashNotFound
		w.log("warn", "formhash 缺失", out, nil)
		return out
	}

	raw, err := sess.SignIn(ctx, formhash, profile.UID)
	if err != nil {
		return w.fail(out, StageSign, err)
	}

	out.Kind, out.Detail = forum.Classify(raw)
	w.log("info", "签到流程结束", out, map[string]any{"kind": string(out.Kind)})
	return out
}

func (w *Workflow) fail(out model.Outcome, stage Stage, err error) model.Outcome {
	out.Detail = err.Error()
	w.log("warn", "阶段失败", out, map[string]any{
		"stage": string(stage),
		"error": err.Error(),
	})
	return out
}

func (w *Workflow) log(level, msg string, out model.Outcome, extra map[string]any) {
	if w.bus == nil {
		return
	}
	fields := map[string]any{
		"runId":    out.RunID,
		"username": out.Username,
	}
	for k, v := range extra {
		fields[k] = v
	}
	w.bus.Log(level, msg, fields)
}
