package collector

import (
	"context"
	"testing"

	"aquawatch/internal/models"

	"go.uber.org/zap"
)

// fakeJobStore 按状态分组的任务数据
type fakeJobStore struct {
	jobs map[models.JobInstanceStatus][]models.SiteJobInstance
}

func (s *fakeJobStore) FindByStatus(ctx context.Context, status models.JobInstanceStatus) ([]models.SiteJobInstance, error) {
	return s.jobs[status], nil
}

func TestTaskCollectorSupports(t *testing.T) {
	c := NewTaskCollector(zap.NewNop(), &fakeJobStore{})
	if !c.Supports(models.MetricTaskExpiring) || !c.Supports(models.MetricTaskTimeout) {
		t.Error("应支持任务即将到期和任务超时指标")
	}
	if c.Supports("pH值") {
		t.Error("不应支持水质因子指标")
	}
}

func TestTaskCollectorCollectExpiring(t *testing.T) {
	store := &fakeJobStore{jobs: map[models.JobInstanceStatus][]models.SiteJobInstance{
		models.JobStatusExpiring: {
			{ID: 1, JobName: "一号站巡检", Status: models.JobStatusExpiring},
			{ID: 2, JobName: "二号站巡检", Status: models.JobStatusExpiring},
		},
		models.JobStatusOverdue: {
			{ID: 3, JobName: "三号站巡检", Status: models.JobStatusOverdue},
		},
	}}
	c := NewTaskCollector(zap.NewNop(), store)

	metrics, err := c.CollectAll(context.Background(), models.MetricTaskExpiring)
	if err != nil {
		t.Fatalf("采集失败: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("应返回2条即将到期任务, 实际 %d", len(metrics))
	}
	for _, m := range metrics {
		if m.TargetType != models.TargetTypeTask {
			t.Errorf("目标类型应为任务, 实际 %s", m.TargetType)
		}
		if m.Value == nil || *m.Value != 1 {
			t.Errorf("指标值应恒为1: %+v", m)
		}
	}
	if metrics[0].TargetName != "一号站巡检" {
		t.Errorf("目标名称不正确: %s", metrics[0].TargetName)
	}
}

func TestTaskCollectorCollectOverdue(t *testing.T) {
	store := &fakeJobStore{jobs: map[models.JobInstanceStatus][]models.SiteJobInstance{
		models.JobStatusOverdue: {
			{ID: 3, JobName: "三号站巡检", Status: models.JobStatusOverdue},
		},
	}}
	c := NewTaskCollector(zap.NewNop(), store)

	metrics, err := c.CollectAll(context.Background(), models.MetricTaskTimeout)
	if err != nil {
		t.Fatalf("采集失败: %v", err)
	}
	if len(metrics) != 1 || metrics[0].TargetID != 3 {
		t.Errorf("超时任务采集结果不正确: %+v", metrics)
	}
}

func TestTaskCollectorUnsupportedMetric(t *testing.T) {
	c := NewTaskCollector(zap.NewNop(), &fakeJobStore{})
	metrics, err := c.CollectAll(context.Background(), "pH值")
	if err != nil {
		t.Fatalf("不支持的指标不应报错: %v", err)
	}
	if len(metrics) != 0 {
		t.Errorf("不支持的指标应返回空结果, 实际 %d 条", len(metrics))
	}
}

func TestRegistryLookup(t *testing.T) {
	task := NewTaskCollector(zap.NewNop(), &fakeJobStore{})
	registry := NewRegistry(task)

	if c, ok := registry.Lookup(models.MetricTaskTimeout); !ok || c.Name() != "task" {
		t.Error("应路由到任务采集器")
	}
	// 缓存命中后结果一致
	if c, ok := registry.Lookup(models.MetricTaskTimeout); !ok || c.Name() != "task" {
		t.Error("缓存命中后应返回相同采集器")
	}
	if _, ok := registry.Lookup("不存在的指标"); ok {
		t.Error("未注册的指标不应命中采集器")
	}
}
