package model

// Account 是一个待签到的论坛账号。密码只存在于进程环境/账号文件中，
// 不随 RunRecord 落库。
type Account struct {
	Username   string `yaml:"username" json:"username"`
	Password   string `yaml:"password" json:"-"`
	QuestionID string `yaml:"questionId" json:"questionId,omitempty"`
	Answer     string `yaml:"answer" json:"-"`
}

// Valid 判断账号是否具备发起登录的最低条件。
func (a Account) Valid() bool {
	return a.Username != "" && a.Password != ""
}
