package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"t00ls_checkin/internal/model"
)

var (
	uidRe      = regexp.MustCompile(`"uid":"(\d+)"`)
	formhashRe = regexp.MustCompile(`"formhash":"(.+?)"`)
)

type LoginResult struct {
	Formhash string            `json:"formhash,omitempty"`
	Cookies  map[string]string `json:"cookies,omitempty"`
}

type ProfileResult struct {
	UID      string `json:"uid,omitempty"`
	Formhash string `json:"formhash,omitempty"`
}

type loginBody struct {
	Formhash string            `json:"formhash"`
	Cookie   map[string]string `json:"cookie"`
}

// Login 提交账号凭据。登录接口返回 JSON，部分部署不会下发 Set-Cookie
// 响应头，而是把会话 cookie 放在 JSON 体里，这里解码后写回 jar。
// 响应体不是合法 JSON 时按空结构处理，不视为错误。
func (s *Session) Login(ctx context.Context, account model.Account) (LoginResult, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"action":     "login",
			"username":   account.Username,
			"password":   account.Password,
			"questionid": account.QuestionID,
			"answer":     account.Answer,
		}).
		Post("/login.json")
	if err != nil {
		return LoginResult{}, err
	}

	raw := resp.String()
	if s.bus != nil {
		s.bus.Log("debug", "登录响应", map[string]any{"body": snippet(raw, 500)})
	}
	if resp.StatusCode() != 200 {
		return LoginResult{}, fmt.Errorf("登录请求失败，状态码: %d", resp.StatusCode())
	}

	var body loginBody
	_ = json.Unmarshal([]byte(raw), &body)

	cookies := model.CookiesFromBodyMap(body.Cookie, s.CookieDomain())
	if len(cookies) > 0 {
		s.jar.SetCookies(s.baseURL, model.CookiesToHTTP(cookies))
	}

	res := LoginResult{Formhash: body.Formhash}
	if len(cookies) > 0 {
		res.Cookies = make(map[string]string, len(cookies))
		for _, c := range cookies {
			res.Cookies[c.Name] = c.Value
		}
	}
	return res, nil
}

// FetchProfile 拉取资料页并从原始文本里抽取 uid / formhash。
// 资料页的内容类型上游没有稳定约定，这里始终按不透明文本做
// 模式匹配，不假设 JSON 结构。
func (s *Session) FetchProfile(ctx context.Context) (ProfileResult, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/members-profile.json")
	if err != nil {
		return ProfileResult{}, err
	}
	if resp.StatusCode() != 200 {
		return ProfileResult{}, fmt.Errorf("获取用户信息失败，状态码: %d", resp.StatusCode())
	}

	raw := resp.String()
	var res ProfileResult
	if m := uidRe.FindStringSubmatch(raw); m != nil {
		res.UID = m[1]
	}
	if m := formhashRe.FindStringSubmatch(raw); m != nil {
		res.Formhash = m[1]
	}
	return res, nil
}

// SignIn 提交签到。Referer 按 uid 拼资料页地址，uid 缺失时退回
// 通用资料页。返回原始响应体，分类交给 Classify。
func (s *Session) SignIn(ctx context.Context, formhash, uid string) (string, error) {
	referer := s.cfg.BaseURL + "/members-profile.html"
	if uid != "" {
		referer = fmt.Sprintf("%s/members-profile-%s.html", s.cfg.BaseURL, uid)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Referer", referer).
		SetFormData(map[string]string{
			"signsubmit": "apply",
			"formhash":   formhash,
		}).
		Post("/ajax-sign.json")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("签到请求失败，状态码: %d", resp.StatusCode())
	}

	raw := resp.String()
	if s.bus != nil {
		s.bus.Log("info", "签到结果", map[string]any{"body": snippet(raw, 500)})
	}
	return raw, nil
}
