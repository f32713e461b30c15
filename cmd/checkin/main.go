package main

import (
	"context"
	"fmt"
	"os"

	"t00ls_checkin/internal/checkin"
	"t00ls_checkin/internal/config"
	"t00ls_checkin/internal/forum"
	"t00ls_checkin/internal/logbus"
	"t00ls_checkin/internal/model"
	"t00ls_checkin/internal/notify"
	"t00ls_checkin/internal/store/sqlite"
)

// 签到工具没有命令行参数，全部配置走环境变量。无论签到成败，
// 进程都正常退出：结果通过通知和控制台输出。
func main() {
	cfg := config.Load()

	bus := logbus.New(200)
	bus.AttachConsole(os.Stdout)
	bus.Log("info", "签到开始", map[string]any{"baseURL": cfg.Forum.BaseURL})

	// 凭据缺失不直接退出：流程会把它判成一次失败并走通知。
	if err := cfg.Validate(); err != nil {
		bus.Log("warn", "配置校验失败", map[string]any{"error": err.Error()})
	}

	ctx := context.Background()

	var store *sqlite.Store
	if cfg.Storage.Enabled() {
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			bus.Log("warn", "历史库打开失败，本次不落库", map[string]any{
				"path":  cfg.Storage.SQLitePath,
				"error": err.Error(),
			})
		} else {
			store = s
			defer store.Close()
		}
	}

	notifier := buildNotifier(cfg, bus)

	accounts := []model.Account{cfg.Account}
	if cfg.AccountsFile != "" {
		extra, err := config.LoadAccounts(cfg.AccountsFile)
		if err != nil {
			bus.Log("warn", "账号文件解析失败，只签主账号", map[string]any{
				"path":  cfg.AccountsFile,
				"error": err.Error(),
			})
		} else {
			accounts = append(accounts, extra...)
		}
	}

	wf := checkin.New(forum.Options{
		Forum: cfg.Forum,
		Proxy: cfg.Proxy,
		Bus:   bus,
	})

	// 多账号依次签到，单个账号失败不影响后面的账号。
	for _, account := range accounts {
		out := wf.Run(ctx, account)
		body := notify.BuildBody(out)

		if store != nil {
			if _, err := store.RecordRun(ctx, model.RecordFromOutcome(out)); err != nil {
				bus.Log("warn", "签到记录落库失败", map[string]any{"error": err.Error()})
			} else if out.Success() || out.AlreadyDone() {
				if streak, err := store.Streak(ctx, out.Username, out.At); err == nil && streak > 0 {
					body += fmt.Sprintf("\n\n> 已连续签到 %d 天。", streak)
				}
			}
		}

		notifier.Notify(ctx, out.Title(), body)
		bus.Log("info", "账号处理完成", map[string]any{
			"username": out.Username,
			"kind":     string(out.Kind),
			"runId":    out.RunID,
		})
	}

	bus.Log("info", "签到结束", nil)
}

func buildNotifier(cfg config.Config, bus *logbus.Bus) notify.Notifier {
	channels := notify.Multi{
		notify.NewDingTalk(cfg.DingTalk, cfg.Proxy, bus),
	}
	if settings := cfg.Email.Settings(); settings.Enabled {
		channels = append(channels, notify.NewEmail(settings, bus))
	}
	return channels
}
