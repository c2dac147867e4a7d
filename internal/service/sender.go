package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"aquawatch/internal/config"
	"aquawatch/internal/models"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender 单一通知渠道的发送器
type Sender interface {
	Type() models.NotifyType
	Send(ctx context.Context, target string, subject string, message string) error
}

// SenderRegistry 按通知方式索引的发送器集合
type SenderRegistry struct {
	senders map[models.NotifyType]Sender
}

func NewSenderRegistry(senders ...Sender) *SenderRegistry {
	m := make(map[models.NotifyType]Sender, len(senders))
	for _, s := range senders {
		m[s.Type()] = s
	}
	return &SenderRegistry{senders: m}
}

func (r *SenderRegistry) Get(t models.NotifyType) (Sender, bool) {
	s, ok := r.senders[t]
	return s, ok
}

// EmailSender 邮件发送器
type EmailSender struct {
	logger *zap.Logger
	cfg    config.SMTPConfig
}

func NewEmailSender(logger *zap.Logger, cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{logger: logger, cfg: cfg}
}

func (s *EmailSender) Type() models.NotifyType {
	return models.NotifyEmail
}

func (s *EmailSender) Send(ctx context.Context, target string, subject string, message string) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("邮件服务未配置")
	}

	m := gomail.NewMessage()
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}
	m.SetHeader("From", from)
	m.SetHeader("To", target)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", message)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

// SmsSender 短信发送器，通过短信网关的HTTP接口发送
type SmsSender struct {
	logger     *zap.Logger
	gatewayURL string
}

func NewSmsSender(logger *zap.Logger, gatewayURL string) *SmsSender {
	return &SmsSender{logger: logger, gatewayURL: gatewayURL}
}

func (s *SmsSender) Type() models.NotifyType {
	return models.NotifySms
}

func (s *SmsSender) Send(ctx context.Context, target string, subject string, message string) error {
	if s.gatewayURL == "" {
		return fmt.Errorf("短信网关未配置")
	}
	body := map[string]interface{}{
		"phone":   target,
		"content": message,
	}
	return sendJSONRequest(ctx, s.logger, s.gatewayURL, body)
}

// PushSender APP推送发送器
type PushSender struct {
	logger     *zap.Logger
	gatewayURL string
}

func NewPushSender(logger *zap.Logger, gatewayURL string) *PushSender {
	return &PushSender{logger: logger, gatewayURL: gatewayURL}
}

func (s *PushSender) Type() models.NotifyType {
	return models.NotifyPush
}

func (s *PushSender) Send(ctx context.Context, target string, subject string, message string) error {
	if s.gatewayURL == "" {
		return fmt.Errorf("推送网关未配置")
	}
	body := map[string]interface{}{
		"token":   target,
		"title":   subject,
		"content": message,
	}
	return sendJSONRequest(ctx, s.logger, s.gatewayURL, body)
}

// WechatSender 企业微信发送器，通过群机器人Webhook发送并@接收人
type WechatSender struct {
	logger     *zap.Logger
	webhookURL string
}

func NewWechatSender(logger *zap.Logger, webhookURL string) *WechatSender {
	return &WechatSender{logger: logger, webhookURL: webhookURL}
}

func (s *WechatSender) Type() models.NotifyType {
	return models.NotifyWechat
}

func (s *WechatSender) Send(ctx context.Context, target string, subject string, message string) error {
	if s.webhookURL == "" {
		return fmt.Errorf("企业微信Webhook未配置")
	}
	body := map[string]interface{}{
		"msgtype": "text",
		"text": map[string]interface{}{
			"content":        subject + "\n" + message,
			"mentioned_list": []string{target},
		},
	}
	return sendJSONRequest(ctx, s.logger, s.webhookURL, body)
}

// sendJSONRequest 发送JSON请求
func sendJSONRequest(ctx context.Context, logger *zap.Logger, url string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("请求失败，状态码: %d, 响应: %s", resp.StatusCode, string(respBody))
	}

	logger.Debug("通知请求发送成功", zap.String("url", url))
	return nil
}
