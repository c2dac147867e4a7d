package collector

import (
	"context"
	"time"

	"aquawatch/internal/models"

	"go.uber.org/zap"
)

// JobStore 任务实例的数据来源
type JobStore interface {
	FindByStatus(ctx context.Context, status models.JobInstanceStatus) ([]models.SiteJobInstance, error)
}

// TaskCollector 任务状态采集器。
// 只返回处于对应状态的任务，值恒为1: 任务即将到期对应expiring, 任务超时对应overdue。
type TaskCollector struct {
	logger *zap.Logger
	jobs   JobStore
}

func NewTaskCollector(logger *zap.Logger, jobs JobStore) *TaskCollector {
	return &TaskCollector{
		logger: logger,
		jobs:   jobs,
	}
}

func (c *TaskCollector) Name() string {
	return "task"
}

func (c *TaskCollector) Supports(metric string) bool {
	return metric == models.MetricTaskExpiring || metric == models.MetricTaskTimeout
}

func (c *TaskCollector) CollectAll(ctx context.Context, metric string) ([]models.Metric, error) {
	var status models.JobInstanceStatus
	switch metric {
	case models.MetricTaskExpiring:
		status = models.JobStatusExpiring
	case models.MetricTaskTimeout:
		status = models.JobStatusOverdue
	default:
		return nil, nil
	}

	jobs, err := c.jobs.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	one := 1.0
	metrics := make([]models.Metric, 0, len(jobs))
	for _, job := range jobs {
		v := one
		metrics = append(metrics, models.Metric{
			Name:        metric,
			TargetType:  models.TargetTypeTask,
			TargetID:    job.ID,
			TargetName:  job.JobName,
			Value:       &v,
			CollectedAt: now,
		})
	}
	return metrics, nil
}
