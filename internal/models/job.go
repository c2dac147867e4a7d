package models

import "fmt"

// JobInstanceStatus 任务实例状态
type JobInstanceStatus string

const (
	JobStatusPending    JobInstanceStatus = "pending"     // 待执行
	JobStatusExpiring   JobInstanceStatus = "expiring"    // 即将到期
	JobStatusInProgress JobInstanceStatus = "in_progress" // 执行中
	JobStatusCompleted  JobInstanceStatus = "completed"   // 已完成
	JobStatusCancelled  JobInstanceStatus = "cancelled"   // 已取消
	JobStatusOverdue    JobInstanceStatus = "overdue"     // 已超时
)

// IsFinished 是否为终态
func (s JobInstanceStatus) IsFinished() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// SiteJobInstance 站点运维任务实例
type SiteJobInstance struct {
	ID             int64             `gorm:"primaryKey;autoIncrement" json:"id"`    // 任务实例ID
	JobName        string            `json:"jobName"`                               // 任务名称
	SiteID         int64             `gorm:"index" json:"siteId"`                   // 所属站点ID
	AlertRecordID  int64             `gorm:"index" json:"alertRecordId"`            // 来源告警记录ID（0表示非告警生成）
	AssigneeUserID int64             `json:"assigneeUserId"`                        // 执行人用户ID
	Status         JobInstanceStatus `gorm:"index" json:"status"`                   // 任务状态
	Deadline       int64             `json:"deadline"`                              // 截止时间（时间戳毫秒）
	StartedAt      int64             `json:"startedAt,omitempty"`                   // 开始执行时间（时间戳毫秒）
	CompletedAt    int64             `json:"completedAt,omitempty"`                 // 完成时间（时间戳毫秒）
	CreatedAt      int64             `json:"createdAt"`                             // 创建时间（时间戳毫秒）
	UpdatedAt      int64             `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
}

func (SiteJobInstance) TableName() string {
	return "site_job_instances"
}

// Start 开始执行任务
func (j *SiteJobInstance) Start(now int64) error {
	if j.Status != JobStatusPending && j.Status != JobStatusExpiring {
		return fmt.Errorf("只有待执行状态的任务才能开始执行, 当前状态: %s", j.Status)
	}
	j.Status = JobStatusInProgress
	j.StartedAt = now
	return nil
}

// Complete 完成任务
func (j *SiteJobInstance) Complete(now int64) error {
	if j.Status != JobStatusInProgress {
		return fmt.Errorf("只有执行中状态的任务才能完成, 当前状态: %s", j.Status)
	}
	j.Status = JobStatusCompleted
	j.CompletedAt = now
	return nil
}

// Cancel 取消任务
func (j *SiteJobInstance) Cancel() error {
	if j.Status.IsFinished() {
		return fmt.Errorf("任务已结束, 不能取消, 当前状态: %s", j.Status)
	}
	j.Status = JobStatusCancelled
	return nil
}

// CheckAndUpdateExpiration 根据截止时间推进到期状态，返回状态是否发生变化。
// expiringWindow 为即将到期的提前量（毫秒）。
func (j *SiteJobInstance) CheckAndUpdateExpiration(now int64, expiringWindow int64) bool {
	switch j.Status {
	case JobStatusPending, JobStatusExpiring, JobStatusInProgress:
	default:
		return false
	}
	if now >= j.Deadline {
		if j.Status != JobStatusOverdue {
			j.Status = JobStatusOverdue
			return true
		}
		return false
	}
	if j.Status == JobStatusPending && j.Deadline-now <= expiringWindow {
		j.Status = JobStatusExpiring
		return true
	}
	return false
}
