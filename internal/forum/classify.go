package forum

import (
	"encoding/json"
	"fmt"
	"strings"

	"t00ls_checkin/internal/model"
)

type signBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// 接口对“今日已签”没有稳定的结构化标记，只能按提示语匹配：
// 英文标记 alreadysign（大小写不限，有的部署写成 already signed）
// 或中文提示“已签”。
const (
	alreadyMarker       = "alreadysign"
	alreadyMarkerZh     = "已签"
	classifiedStatusOK  = "success"
	statusUnparsedValue = "unknown"
)

// matchesAlreadySigned 对消息去空格后再做小写子串匹配，
// "alreadysign" 和 "already signed in today" 都落在同一个标记上。
func matchesAlreadySigned(message string) bool {
	compact := strings.ReplaceAll(strings.ToLower(message), " ", "")
	return strings.Contains(compact, alreadyMarker) ||
		strings.Contains(message, alreadyMarkerZh)
}

// Classify 把签到接口的原始返回归类为 成功 / 已签 / 失败。
// 优先读 JSON 的 status / message 字段；解析失败时退回对原始文本
// 做子串匹配。Detail 在成功与已签时是原始返回，失败时是
// "status=..., message=..." 摘要。
func Classify(raw string) (model.OutcomeKind, string) {
	status := statusUnparsedValue
	message := raw

	var body signBody
	if err := json.Unmarshal([]byte(raw), &body); err == nil {
		status = strings.ToLower(body.Status)
		if body.Message != "" {
			message = body.Message
		} else {
			message = raw
		}
	}

	already := matchesAlreadySigned(message)

	switch {
	case status == classifiedStatusOK:
		return model.OutcomeSuccess, raw
	case already:
		return model.OutcomeAlreadyDone, raw
	default:
		return model.OutcomeFailure, fmt.Sprintf("status=%s, message=%s", status, message)
	}
}
