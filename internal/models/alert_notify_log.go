package models

import (
	"errors"
	"fmt"
)

// MaxNotifyRetry 单条通知的最大重试次数
const MaxNotifyRetry = 3

// ErrRetryNotAllowed 通知不满足重试条件
var ErrRetryNotAllowed = errors.New("通知不满足重试条件")

// NotifyType 通知方式
type NotifyType string

const (
	NotifySms    NotifyType = "sms"    // 短信
	NotifyEmail  NotifyType = "email"  // 邮件
	NotifyPush   NotifyType = "push"   // APP推送
	NotifyWechat NotifyType = "wechat" // 企业微信
)

// NotifyScene 通知场景
type NotifyScene string

const (
	SceneCreate  NotifyScene = "CREATE"  // 告警触发通知
	SceneRecover NotifyScene = "RECOVER" // 告警恢复通知
)

// AlertNotifyLog 告警通知记录（每个接收人每种通知方式一条）
type AlertNotifyLog struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`    // 记录ID
	AlertRecordID int64        `gorm:"index" json:"alertRecordId"`            // 告警记录ID
	UserID        int64        `gorm:"index" json:"userId"`                   // 接收人ID
	UserName      string       `json:"userName"`                              // 接收人姓名
	NotifyType    NotifyType   `json:"notifyType"`                            // 通知方式
	NotifyTarget  string       `json:"notifyTarget"`                          // 实际发送地址（手机号/邮箱等）
	Scene         NotifyScene  `gorm:"index" json:"scene"`                    // 通知场景
	Status        NotifyStatus `gorm:"index" json:"status"`                   // 发送状态
	FailReason    string       `json:"failReason"`                            // 失败原因
	RetryCount    int          `json:"retryCount"`                            // 已重试次数
	SentAt        int64        `json:"sentAt,omitempty"`                      // 发送时间（时间戳毫秒）
	CreatedAt     int64        `json:"createdAt"`                             // 创建时间（时间戳毫秒）
	UpdatedAt     int64        `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
}

func (AlertNotifyLog) TableName() string {
	return "alert_notify_logs"
}

// MarkSuccess 标记发送成功
func (l *AlertNotifyLog) MarkSuccess(now int64) {
	l.Status = NotifyStatusSuccess
	l.FailReason = ""
	l.SentAt = now
}

// MarkFailed 标记发送失败
func (l *AlertNotifyLog) MarkFailed(reason string, now int64) {
	l.Status = NotifyStatusFailed
	l.FailReason = reason
	l.SentAt = now
}

// CanRetry 是否还可以重试
func (l *AlertNotifyLog) CanRetry() bool {
	return l.Status == NotifyStatusFailed && l.RetryCount < MaxNotifyRetry
}

// ResetToPending 重置为待发送状态并累计重试次数
func (l *AlertNotifyLog) ResetToPending() error {
	if !l.CanRetry() {
		return fmt.Errorf("%w: 状态=%s, 已重试次数=%d", ErrRetryNotAllowed, l.Status, l.RetryCount)
	}
	l.Status = NotifyStatusPending
	l.FailReason = ""
	l.RetryCount++
	return nil
}
