package service

import (
	"context"
	"fmt"
	"time"

	"aquawatch/internal/models"
	"aquawatch/internal/repo"

	"go.uber.org/zap"
)

// JobService 站点运维任务管理。
// 为告警创建整改任务，并负责推进任务的到期状态。
type JobService struct {
	logger           *zap.Logger
	jobRepo          *repo.JobRepo
	siteRepo         *repo.SiteRepo
	deadlineHours    int
	expiringWindowMs int64
}

func NewJobService(logger *zap.Logger, jobRepo *repo.JobRepo, siteRepo *repo.SiteRepo,
	deadlineHours int, expiringHours int) *JobService {
	if deadlineHours <= 0 {
		deadlineHours = 72
	}
	if expiringHours <= 0 {
		expiringHours = 24
	}
	return &JobService{
		logger:           logger,
		jobRepo:          jobRepo,
		siteRepo:         siteRepo,
		deadlineHours:    deadlineHours,
		expiringWindowMs: int64(expiringHours) * 3600 * 1000,
	}
}

// CreateForAlert 为告警创建整改任务，返回任务实例ID
func (s *JobService) CreateForAlert(ctx context.Context, record *models.AlertRecord) (int64, error) {
	siteID, err := s.resolveSiteID(ctx, record)
	if err != nil {
		return 0, err
	}

	var assignee int64
	if siteID > 0 {
		site, err := s.siteRepo.GetSite(ctx, siteID)
		if err == nil {
			assignee = site.PrincipalUserID
		}
	}

	now := time.Now().UnixMilli()
	job := &models.SiteJobInstance{
		JobName:        fmt.Sprintf("告警整改: %s", record.RuleName),
		SiteID:         siteID,
		AlertRecordID:  record.ID,
		AssigneeUserID: assignee,
		Status:         models.JobStatusPending,
		Deadline:       now + int64(s.deadlineHours)*3600*1000,
		CreatedAt:      now,
	}
	if err := s.jobRepo.CreateJob(ctx, job); err != nil {
		return 0, err
	}

	s.logger.Info("创建告警整改任务",
		zap.Int64("jobId", job.ID),
		zap.String("alertCode", record.AlertCode),
		zap.Int64("siteId", siteID),
		zap.Int64("assigneeUserId", assignee))
	return job.ID, nil
}

// resolveSiteID 解析告警目标所属的站点
func (s *JobService) resolveSiteID(ctx context.Context, record *models.AlertRecord) (int64, error) {
	switch record.TargetType {
	case models.TargetTypeSite:
		return record.TargetID, nil
	case models.TargetTypeDevice:
		device, err := s.siteRepo.GetDevice(ctx, record.TargetID)
		if err != nil {
			return 0, err
		}
		return device.SiteID, nil
	default:
		return 0, nil
	}
}

// RefreshExpirations 扫描未结束的任务，推进即将到期/超时状态
func (s *JobService) RefreshExpirations(ctx context.Context) error {
	jobs, err := s.jobRepo.FindUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("查询未结束的任务失败: %w", err)
	}

	now := time.Now().UnixMilli()
	for i := range jobs {
		job := jobs[i]
		if !job.CheckAndUpdateExpiration(now, s.expiringWindowMs) {
			continue
		}
		if err := s.jobRepo.UpdateJob(ctx, &job); err != nil {
			s.logger.Error("更新任务到期状态失败",
				zap.Int64("jobId", job.ID),
				zap.Error(err))
			continue
		}
		s.logger.Info("任务到期状态变更",
			zap.Int64("jobId", job.ID),
			zap.String("jobName", job.JobName),
			zap.String("status", string(job.Status)))
	}
	return nil
}

// StartJob 开始执行任务
func (s *JobService) StartJob(ctx context.Context, id int64) error {
	job, err := s.jobRepo.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if err := job.Start(time.Now().UnixMilli()); err != nil {
		return err
	}
	return s.jobRepo.UpdateJob(ctx, job)
}

// CompleteJob 完成任务
func (s *JobService) CompleteJob(ctx context.Context, id int64) error {
	job, err := s.jobRepo.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if err := job.Complete(time.Now().UnixMilli()); err != nil {
		return err
	}
	return s.jobRepo.UpdateJob(ctx, job)
}

// CancelJob 取消任务
func (s *JobService) CancelJob(ctx context.Context, id int64) error {
	job, err := s.jobRepo.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if err := job.Cancel(); err != nil {
		return err
	}
	return s.jobRepo.UpdateJob(ctx, job)
}
