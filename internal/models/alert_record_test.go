package models

import (
	"errors"
	"testing"
)

func TestAlertRecordStartProcess(t *testing.T) {
	// 只有待处理状态可以开始处理
	record := &AlertRecord{Status: AlertStatusPending, CreatedAt: 1000}
	if err := record.StartProcess("张三", 2000); err != nil {
		t.Fatalf("开始处理失败: %v", err)
	}
	if record.Status != AlertStatusInProgress {
		t.Errorf("状态应为处理中, 实际为 %s", record.Status)
	}
	if record.Handler != "张三" || record.HandledAt != 2000 {
		t.Errorf("处理人或处理时间不正确: %+v", record)
	}

	// 重复开始处理应报错
	if err := record.StartProcess("李四", 3000); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("期望状态流转错误, 实际为 %v", err)
	}
}

func TestAlertRecordResolve(t *testing.T) {
	// 待处理和处理中都可以直接解决
	record := &AlertRecord{Status: AlertStatusPending, CreatedAt: 0}
	if err := record.Resolve("张三", "误报已确认", 60000); err != nil {
		t.Fatalf("待处理状态解决失败: %v", err)
	}
	if record.Status != AlertStatusResolved {
		t.Errorf("状态应为已解决, 实际为 %s", record.Status)
	}

	record = &AlertRecord{Status: AlertStatusPending, CreatedAt: 0}
	if err := record.StartProcess("张三", 60000); err != nil {
		t.Fatal(err)
	}
	// 创建后3分钟解决
	if err := record.Resolve("张三", "已处理", 180000); err != nil {
		t.Fatalf("解决告警失败: %v", err)
	}
	if record.Status != AlertStatusResolved {
		t.Errorf("状态应为已解决, 实际为 %s", record.Status)
	}
	if record.Duration != 3 {
		t.Errorf("持续时长应为3分钟, 实际为 %d", record.Duration)
	}
	if record.HandleRemark != "已处理" {
		t.Errorf("处理备注不正确: %s", record.HandleRemark)
	}

	// 终态不能再解决
	if err := record.Resolve("张三", "", 200000); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("期望状态流转错误, 实际为 %v", err)
	}
}

func TestAlertRecordMarkNotify(t *testing.T) {
	record := &AlertRecord{Status: AlertStatusPending, NotifyStatus: NotifyStatusPending}

	record.MarkNotifyFailed(1000)
	if record.NotifyStatus != NotifyStatusFailed || record.NotifiedAt != 1000 {
		t.Errorf("标记通知失败后状态不正确: %+v", record)
	}

	record.MarkNotifySuccess(2000)
	if record.NotifyStatus != NotifyStatusSuccess || record.NotifiedAt != 2000 {
		t.Errorf("标记通知成功后状态不正确: %+v", record)
	}
}

func TestAlertRecordIgnore(t *testing.T) {
	// 待处理和处理中都可以忽略
	for _, status := range []AlertStatus{AlertStatusPending, AlertStatusInProgress} {
		record := &AlertRecord{Status: status, CreatedAt: 0}
		if err := record.Ignore("张三", "误报", 120000); err != nil {
			t.Fatalf("状态 %s 忽略失败: %v", status, err)
		}
		if record.Status != AlertStatusIgnored {
			t.Errorf("状态应为已忽略, 实际为 %s", record.Status)
		}
	}

	// 终态不能忽略
	record := &AlertRecord{Status: AlertStatusResolved}
	if err := record.Ignore("张三", "", 0); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("期望状态流转错误, 实际为 %v", err)
	}
}

func TestAlertRecordRecover(t *testing.T) {
	record := &AlertRecord{Status: AlertStatusInProgress, CreatedAt: 0}
	if err := record.Recover(600000); err != nil {
		t.Fatalf("自动恢复失败: %v", err)
	}
	if record.Status != AlertStatusRecovered {
		t.Errorf("状态应为已恢复, 实际为 %s", record.Status)
	}
	if record.Duration != 10 {
		t.Errorf("持续时长应为10分钟, 实际为 %d", record.Duration)
	}

	// 已恢复不能再恢复
	if err := record.Recover(700000); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("期望状态流转错误, 实际为 %v", err)
	}
}

func TestAlertStatusHelpers(t *testing.T) {
	if !AlertStatusPending.IsActive() || !AlertStatusInProgress.IsActive() {
		t.Error("待处理和处理中应为未关闭状态")
	}
	for _, status := range []AlertStatus{AlertStatusResolved, AlertStatusIgnored, AlertStatusRecovered} {
		if !status.IsClosed() {
			t.Errorf("%s 应为终态", status)
		}
		if status.IsActive() {
			t.Errorf("%s 不应为未关闭状态", status)
		}
	}
}
