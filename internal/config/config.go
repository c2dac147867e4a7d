package config

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Alert  AlertConfig  `yaml:"alert"`
	Notify NotifyConfig `yaml:"notify"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Addr string `yaml:"addr"` // 监听地址, 如 :8080
}

// AlertConfig 告警评估与派发配置
type AlertConfig struct {
	EvaluateCron      string `yaml:"evaluateCron"`      // 规则评估扫描 cron 表达式
	RecoverCron       string `yaml:"recoverCron"`       // 恢复检查 cron 表达式
	RetryCron         string `yaml:"retryCron"`         // 失败通知重发 cron 表达式
	DispatchWorkers   int    `yaml:"dispatchWorkers"`   // 通知派发协程数
	SendConcurrency   int    `yaml:"sendConcurrency"`   // 单次派发内的并发发送上限
	TaskExpiringHours int    `yaml:"taskExpiringHours"` // 任务进入即将到期状态的提前量（小时）
	TaskDeadlineHours int    `yaml:"taskDeadlineHours"` // 告警整改任务的默认期限（小时）
}

// NotifyConfig 通知渠道配置
type NotifyConfig struct {
	SMTP             SMTPConfig `yaml:"smtp"`
	SmsGatewayURL    string     `yaml:"smsGatewayUrl"`    // 短信网关地址
	PushGatewayURL   string     `yaml:"pushGatewayUrl"`   // APP推送网关地址
	WechatWebhookURL string     `yaml:"wechatWebhookUrl"` // 企业微信机器人Webhook地址
}

// SMTPConfig 邮件服务配置
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Normalize 填充默认值
func (c *AppConfig) Normalize() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Alert.EvaluateCron == "" {
		c.Alert.EvaluateCron = "*/5 * * * *"
	}
	if c.Alert.RecoverCron == "" {
		c.Alert.RecoverCron = "*/10 * * * *"
	}
	if c.Alert.RetryCron == "" {
		c.Alert.RetryCron = "*/15 * * * *"
	}
	if c.Alert.DispatchWorkers <= 0 {
		c.Alert.DispatchWorkers = 4
	}
	if c.Alert.SendConcurrency <= 0 {
		c.Alert.SendConcurrency = 4
	}
	if c.Alert.TaskExpiringHours <= 0 {
		c.Alert.TaskExpiringHours = 24
	}
	if c.Alert.TaskDeadlineHours <= 0 {
		c.Alert.TaskDeadlineHours = 72
	}
}
