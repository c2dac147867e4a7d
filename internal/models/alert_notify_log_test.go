package models

import (
	"errors"
	"testing"
)

func TestNotifyLogMarkResult(t *testing.T) {
	log := &AlertNotifyLog{Status: NotifyStatusPending}

	log.MarkFailed("网关超时", 1000)
	if log.Status != NotifyStatusFailed || log.FailReason != "网关超时" || log.SentAt != 1000 {
		t.Errorf("标记失败后状态不正确: %+v", log)
	}

	log.MarkSuccess(2000)
	if log.Status != NotifyStatusSuccess || log.FailReason != "" || log.SentAt != 2000 {
		t.Errorf("标记成功后状态不正确: %+v", log)
	}
}

func TestNotifyLogCanRetry(t *testing.T) {
	// 失败且未达上限可以重试
	log := &AlertNotifyLog{Status: NotifyStatusFailed, RetryCount: MaxNotifyRetry - 1}
	if !log.CanRetry() {
		t.Error("未达重试上限应可以重试")
	}

	// 达到上限不能重试
	log.RetryCount = MaxNotifyRetry
	if log.CanRetry() {
		t.Error("达到重试上限不应再重试")
	}

	// 成功状态不能重试
	log = &AlertNotifyLog{Status: NotifyStatusSuccess}
	if log.CanRetry() {
		t.Error("成功状态不应重试")
	}
}

func TestNotifyLogResetToPending(t *testing.T) {
	log := &AlertNotifyLog{Status: NotifyStatusFailed, FailReason: "网关超时", RetryCount: 1}
	if err := log.ResetToPending(); err != nil {
		t.Fatalf("重置失败: %v", err)
	}
	if log.Status != NotifyStatusPending || log.RetryCount != 2 || log.FailReason != "" {
		t.Errorf("重置后状态不正确: %+v", log)
	}

	// 不满足重试条件时返回错误
	log.Status = NotifyStatusFailed
	log.RetryCount = MaxNotifyRetry
	if err := log.ResetToPending(); !errors.Is(err, ErrRetryNotAllowed) {
		t.Errorf("期望重试受限错误, 实际为 %v", err)
	}
}
