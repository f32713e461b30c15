package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"t00ls_checkin/internal/model"
	"t00ls_checkin/internal/utils"
)

type Config struct {
	Account  model.Account
	Forum    ForumConfig
	Proxy    ProxyConfig
	DingTalk DingTalkConfig
	Email    EmailConfig
	Storage  StorageConfig

	// AccountsFile 可选的多账号 YAML 文件路径，里面的账号在主账号
	// 之后依次签到。
	AccountsFile string
}

type ForumConfig struct {
	BaseURL        string
	TimeoutSeconds int
	Retries        int
	UserAgent      string
}

func (c ForumConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBudget 是请求总尝试次数，至少为 1。
func (c ForumConfig) RetryBudget() int {
	if c.Retries < 1 {
		return 1
	}
	return c.Retries
}

type ProxyConfig struct {
	HTTP  string
	HTTPS string
}

// For 按目标 URL 的 scheme 返回代理地址。
func (c ProxyConfig) For(targetURL string) string {
	if strings.HasPrefix(targetURL, "https://") {
		if c.HTTPS != "" {
			return c.HTTPS
		}
		return c.HTTP
	}
	if c.HTTP != "" {
		return c.HTTP
	}
	return c.HTTPS
}

type DingTalkConfig struct {
	AccessToken string
	Secret      string
}

type EmailConfig struct {
	Address  string
	AuthCode string
}

func (c EmailConfig) Settings() model.EmailSettings {
	return model.EmailSettings{
		Enabled:  c.Address != "",
		Email:    c.Address,
		AuthCode: c.AuthCode,
	}
}

type StorageConfig struct {
	// SQLitePath 历史库路径；"off" 表示不落库。
	SQLitePath string
}

func (c StorageConfig) Enabled() bool {
	return c.SQLitePath != "" && !strings.EqualFold(c.SQLitePath, "off")
}

// Load 从环境变量读取配置。没有命令行参数，全部配置都走环境。
func Load() Config {
	cfg := Config{
		Account: model.Account{
			Username:   getenv("T00LS_USERNAME", ""),
			Password:   getenv("T00LS_PASSWORD", ""),
			QuestionID: getenv("T00LS_QUESTIONID", "0"),
			Answer:     getenv("T00LS_ANSWER", ""),
		},
		Forum: ForumConfig{
			BaseURL:        strings.TrimRight(getenv("T00LS_BASE_URL", "https://www.t00ls.com"), "/"),
			TimeoutSeconds: getenvInt("T00LS_TIMEOUT", 15),
			Retries:        getenvInt("T00LS_RETRIES", 2),
			UserAgent:      utils.NormalizeDesktopUserAgent(getenv("T00LS_USER_AGENT", "")),
		},
		Proxy: ProxyConfig{
			HTTP:  getenv("HTTP_PROXY", getenv("http_proxy", "")),
			HTTPS: getenv("HTTPS_PROXY", getenv("https_proxy", "")),
		},
		DingTalk: DingTalkConfig{
			AccessToken: getenv("DD_ACCESS_TOKEN", ""),
			Secret:      getenv("DD_SECRET", ""),
		},
		Email: EmailConfig{
			Address:  getenv("CHECKIN_EMAIL", ""),
			AuthCode: getenv("CHECKIN_EMAIL_AUTH_CODE", ""),
		},
		Storage: StorageConfig{
			SQLitePath: getenv("T00LS_HISTORY_DB", "./data/checkin.db"),
		},
		AccountsFile: getenv("T00LS_ACCOUNTS_FILE", ""),
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Forum.BaseURL == "" {
		c.Forum.BaseURL = "https://www.t00ls.com"
	}
	if c.Forum.TimeoutSeconds <= 0 {
		c.Forum.TimeoutSeconds = 15
	}
	if c.Forum.Retries < 1 {
		c.Forum.Retries = 1
	}
	if c.Forum.UserAgent == "" {
		c.Forum.UserAgent = utils.DefaultDesktopUserAgent()
	}
}

// Validate 只校验主账号。账号缺失不是致命错误：流程会把它当成
// 一次失败结果去通知，进程仍然正常退出。
func (c Config) Validate() error {
	if !c.Account.Valid() {
		return errors.New("缺少必要环境变量：T00LS_USERNAME / T00LS_PASSWORD")
	}
	return nil
}

type accountsFile struct {
	Accounts []model.Account `yaml:"accounts"`
}

// LoadAccounts 解析多账号文件。缺省 questionId 补为 "0"，无效账号
// （缺用户名或密码）原样返回，由流程侧按前置校验失败处理。
func LoadAccounts(path string) ([]model.Account, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f accountsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	for i := range f.Accounts {
		if strings.TrimSpace(f.Accounts[i].QuestionID) == "" {
			f.Accounts[i].QuestionID = "0"
		}
	}
	return f.Accounts, nil
}

func getenv(name, def string) string {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func getenvInt(name string, def int) int {
	v := getenv(name, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
