package models

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidStateTransition 非法的告警状态流转
var ErrInvalidStateTransition = errors.New("非法的告警状态流转")

// AlertStatus 告警状态
type AlertStatus string

const (
	AlertStatusPending    AlertStatus = "PENDING"     // 待处理
	AlertStatusInProgress AlertStatus = "IN_PROGRESS" // 处理中
	AlertStatusResolved   AlertStatus = "RESOLVED"    // 已解决
	AlertStatusIgnored    AlertStatus = "IGNORED"     // 已忽略
	AlertStatusRecovered  AlertStatus = "RECOVERED"   // 已恢复
)

// IsActive 是否为未关闭状态
func (s AlertStatus) IsActive() bool {
	return s == AlertStatusPending || s == AlertStatusInProgress
}

// IsClosed 是否为终态
func (s AlertStatus) IsClosed() bool {
	return s == AlertStatusResolved || s == AlertStatusIgnored || s == AlertStatusRecovered
}

// NotifyStatus 通知状态
type NotifyStatus string

const (
	NotifyStatusPending NotifyStatus = "PENDING" // 待通知
	NotifyStatusSuccess NotifyStatus = "SUCCESS" // 通知成功
	NotifyStatusFailed  NotifyStatus = "FAILED"  // 通知失败
)

// AlertRecord 告警记录
type AlertRecord struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`    // 记录ID
	AlertCode     string         `gorm:"uniqueIndex" json:"alertCode"`          // 告警编号 (UUID)
	RuleID        int64          `gorm:"index" json:"ruleId"`                   // 规则ID
	RuleName      string         `json:"ruleName"`                              // 规则名称（冗余存储）
	RuleType      AlertRuleType  `json:"ruleType"`                              // 规则类型
	AlertLevel    AlertLevel     `gorm:"index" json:"alertLevel"`               // 告警级别
	TargetType    string         `gorm:"index" json:"targetType"`               // 目标类型: site, device, task
	TargetID      int64          `gorm:"index" json:"targetId"`                 // 目标ID
	TargetName    string         `json:"targetName"`                            // 目标名称
	AlertMessage  string         `json:"alertMessage"`                          // 告警消息
	AlertData     datatypes.JSON `json:"alertData"`                             // 触发指标快照
	Status        AlertStatus    `gorm:"index" json:"status"`                   // 告警状态
	NotifyStatus  NotifyStatus   `json:"notifyStatus"`                          // 通知状态
	NotifiedAt    int64          `json:"notifiedAt,omitempty"`                  // 最近一次通知结果时间（时间戳毫秒）
	JobInstanceID int64          `json:"jobInstanceId"`                         // 关联的任务实例ID
	IsSelfTask    bool           `json:"isSelfTask"`                            // 告警对象本身是否为任务
	Handler       string         `json:"handler"`                               // 处理人
	HandleRemark  string         `json:"handleRemark"`                          // 处理备注
	HandledAt     int64          `json:"handledAt,omitempty"`                   // 开始处理时间（时间戳毫秒）
	ClosedAt      int64          `json:"closedAt,omitempty"`                    // 关闭时间（时间戳毫秒）
	Duration      int64          `json:"duration"`                              // 告警持续时长（分钟）
	Remark        string         `json:"remark"`                                // 备注
	CreatedAt     int64          `gorm:"index" json:"createdAt"`                // 触发时间（时间戳毫秒）
	UpdatedAt     int64          `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
	Deleted       gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除标记
}

func (AlertRecord) TableName() string {
	return "alert_records"
}

// StartProcess 开始处理告警
func (r *AlertRecord) StartProcess(handler string, now int64) error {
	if r.Status != AlertStatusPending {
		return fmt.Errorf("%w: 只有待处理状态的告警才能开始处理, 当前状态: %s", ErrInvalidStateTransition, r.Status)
	}
	r.Status = AlertStatusInProgress
	r.Handler = handler
	r.HandledAt = now
	return nil
}

// Resolve 标记告警为已解决
func (r *AlertRecord) Resolve(handler string, remark string, now int64) error {
	if !r.Status.IsActive() {
		return fmt.Errorf("%w: 只有待处理或处理中状态的告警才能标记为已解决, 当前状态: %s", ErrInvalidStateTransition, r.Status)
	}
	r.Status = AlertStatusResolved
	r.Handler = handler
	r.HandleRemark = remark
	r.close(now)
	return nil
}

// Ignore 忽略告警
func (r *AlertRecord) Ignore(handler string, remark string, now int64) error {
	if !r.Status.IsActive() {
		return fmt.Errorf("%w: 只有待处理或处理中状态的告警才能忽略, 当前状态: %s", ErrInvalidStateTransition, r.Status)
	}
	r.Status = AlertStatusIgnored
	r.Handler = handler
	r.HandleRemark = remark
	r.close(now)
	return nil
}

// Recover 告警条件不再满足，自动恢复
func (r *AlertRecord) Recover(now int64) error {
	if !r.Status.IsActive() {
		return fmt.Errorf("%w: 只有待处理或处理中状态的告警才能自动恢复, 当前状态: %s", ErrInvalidStateTransition, r.Status)
	}
	r.Status = AlertStatusRecovered
	r.close(now)
	return nil
}

// close 记录关闭时间并结算持续时长
func (r *AlertRecord) close(now int64) {
	r.ClosedAt = now
	if now > r.CreatedAt {
		r.Duration = (now - r.CreatedAt) / 60000
	}
}

// MarkNotifySuccess 标记通知成功
func (r *AlertRecord) MarkNotifySuccess(now int64) {
	r.NotifyStatus = NotifyStatusSuccess
	r.NotifiedAt = now
}

// MarkNotifyFailed 标记通知失败
func (r *AlertRecord) MarkNotifyFailed(now int64) {
	r.NotifyStatus = NotifyStatusFailed
	r.NotifiedAt = now
}

// UpdateRemark 更新备注
func (r *AlertRecord) UpdateRemark(remark string) {
	r.Remark = remark
}

// AssociateJobInstance 关联整改任务
func (r *AlertRecord) AssociateJobInstance(jobID int64) {
	r.JobInstanceID = jobID
}
