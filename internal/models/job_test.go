package models

import "testing"

const hourMs = int64(3600 * 1000)

func TestJobLifecycle(t *testing.T) {
	job := &SiteJobInstance{Status: JobStatusPending}

	if err := job.Complete(1000); err == nil {
		t.Error("待执行状态不应能直接完成")
	}
	if err := job.Start(1000); err != nil {
		t.Fatalf("开始任务失败: %v", err)
	}
	if job.Status != JobStatusInProgress || job.StartedAt != 1000 {
		t.Errorf("开始后状态不正确: %+v", job)
	}
	if err := job.Complete(2000); err != nil {
		t.Fatalf("完成任务失败: %v", err)
	}
	if job.Status != JobStatusCompleted || job.CompletedAt != 2000 {
		t.Errorf("完成后状态不正确: %+v", job)
	}

	// 终态不能取消
	if err := job.Cancel(); err == nil {
		t.Error("已完成的任务不应能取消")
	}
}

func TestJobStartFromExpiring(t *testing.T) {
	// 即将到期的任务仍可以开始执行
	job := &SiteJobInstance{Status: JobStatusExpiring}
	if err := job.Start(1000); err != nil {
		t.Fatalf("即将到期的任务开始失败: %v", err)
	}
}

func TestCheckAndUpdateExpiration(t *testing.T) {
	window := 24 * hourMs

	// 距截止时间超过提前量, 状态不变
	job := &SiteJobInstance{Status: JobStatusPending, Deadline: 100 * hourMs}
	if job.CheckAndUpdateExpiration(10*hourMs, window) {
		t.Error("距截止时间较远时状态不应变化")
	}

	// 进入提前量窗口, 待执行变为即将到期
	if !job.CheckAndUpdateExpiration(80*hourMs, window) {
		t.Error("进入提前量窗口应变为即将到期")
	}
	if job.Status != JobStatusExpiring {
		t.Errorf("状态应为即将到期, 实际为 %s", job.Status)
	}

	// 超过截止时间变为已超时
	if !job.CheckAndUpdateExpiration(101*hourMs, window) {
		t.Error("超过截止时间应变为已超时")
	}
	if job.Status != JobStatusOverdue {
		t.Errorf("状态应为已超时, 实际为 %s", job.Status)
	}

	// 执行中的任务同样会超时
	job = &SiteJobInstance{Status: JobStatusInProgress, Deadline: 100 * hourMs}
	if !job.CheckAndUpdateExpiration(101*hourMs, window) {
		t.Error("执行中的任务超过截止时间应变为已超时")
	}

	// 终态不参与到期推进
	job = &SiteJobInstance{Status: JobStatusCompleted, Deadline: 100 * hourMs}
	if job.CheckAndUpdateExpiration(200*hourMs, window) {
		t.Error("已完成的任务不应参与到期推进")
	}
}
