package model

import (
	"net/http"
	"net/url"
)

// Cookie 是登录接口 JSON 体里 cookie 字段的一项。部分站点不会下发
// Set-Cookie 响应头，而是把会话 cookie 放在 JSON 里，值做了百分号编码。
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// CookiesFromBodyMap 把 JSON 体里的 name→value 映射解码成标准 cookie，
// 统一挂到 domain 下。只还原百分号编码，字面的 + 必须原样保留
// （会话 cookie 常是 base64 形状，+ 是值本身的一部分）；解码失败时
// 保留原始值。
func CookiesFromBodyMap(m map[string]string, domain string) []Cookie {
	out := make([]Cookie, 0, len(m))
	for name, raw := range m {
		value := raw
		if decoded, err := url.PathUnescape(raw); err == nil {
			value = decoded
		}
		out = append(out, Cookie{Name: name, Value: value, Domain: domain, Path: "/"})
	}
	return out
}

func CookiesToHTTP(in []Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return out
}
