package service

import (
	"context"
	"time"

	"aquawatch/internal/models"
	"aquawatch/internal/repo"

	"go.uber.org/zap"
)

// AlertService 告警记录生命周期管理与接收人解析
type AlertService struct {
	logger     *zap.Logger
	recordRepo *repo.AlertRecordRepo
	logRepo    *repo.AlertNotifyLogRepo
	userRepo   *repo.UserRepo
	siteRepo   *repo.SiteRepo
	jobRepo    *repo.JobRepo
}

func NewAlertService(logger *zap.Logger, recordRepo *repo.AlertRecordRepo, logRepo *repo.AlertNotifyLogRepo,
	userRepo *repo.UserRepo, siteRepo *repo.SiteRepo, jobRepo *repo.JobRepo) *AlertService {
	return &AlertService{
		logger:     logger,
		recordRepo: recordRepo,
		logRepo:    logRepo,
		userRepo:   userRepo,
		siteRepo:   siteRepo,
		jobRepo:    jobRepo,
	}
}

// StartProcess 开始处理告警
func (s *AlertService) StartProcess(ctx context.Context, id int64, handler string) error {
	record, err := s.recordRepo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := record.StartProcess(handler, time.Now().UnixMilli()); err != nil {
		return err
	}
	s.logger.Info("开始处理告警",
		zap.String("alertCode", record.AlertCode),
		zap.String("handler", handler))
	return s.recordRepo.UpdateRecord(ctx, record)
}

// Resolve 标记告警为已解决
func (s *AlertService) Resolve(ctx context.Context, id int64, handler string, remark string) error {
	record, err := s.recordRepo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := record.Resolve(handler, remark, time.Now().UnixMilli()); err != nil {
		return err
	}
	s.logger.Info("告警已解决",
		zap.String("alertCode", record.AlertCode),
		zap.String("handler", handler),
		zap.Int64("durationMinutes", record.Duration))
	return s.recordRepo.UpdateRecord(ctx, record)
}

// Ignore 忽略告警
func (s *AlertService) Ignore(ctx context.Context, id int64, handler string, remark string) error {
	record, err := s.recordRepo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := record.Ignore(handler, remark, time.Now().UnixMilli()); err != nil {
		return err
	}
	s.logger.Info("告警已忽略",
		zap.String("alertCode", record.AlertCode),
		zap.String("handler", handler))
	return s.recordRepo.UpdateRecord(ctx, record)
}

// UpdateRemark 更新告警备注
func (s *AlertService) UpdateRemark(ctx context.Context, id int64, remark string) error {
	record, err := s.recordRepo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	record.UpdateRemark(remark)
	return s.recordRepo.UpdateRecord(ctx, record)
}

// GetRecord 获取告警记录
func (s *AlertService) GetRecord(ctx context.Context, id int64) (*models.AlertRecord, error) {
	return s.recordRepo.GetRecord(ctx, id)
}

// PageRecords 分页查询告警记录
func (s *AlertService) PageRecords(ctx context.Context, status models.AlertStatus, level models.AlertLevel,
	keyword string, limit int, offset int) ([]models.AlertRecord, int64, error) {
	return s.recordRepo.PageRecords(ctx, status, level, keyword, limit, offset)
}

// ListNotifyLogs 查询某条告警的通知记录
func (s *AlertService) ListNotifyLogs(ctx context.Context, alertRecordID int64) ([]models.AlertNotifyLog, error) {
	return s.logRepo.FindByAlertRecordID(ctx, alertRecordID)
}

// AlertRecipients 解析告警接收人。
// 优先级: 规则配置的用户 + 部门成员; 都为空时回退到告警目标的责任人。
func (s *AlertService) AlertRecipients(ctx context.Context, rule *models.AlertRule, record *models.AlertRecord) ([]models.User, error) {
	var users []models.User

	configured, err := s.userRepo.FindByIDs(ctx, rule.NotifyUserIDs())
	if err != nil {
		return nil, err
	}
	users = append(users, configured...)

	deptUsers, err := s.userRepo.FindByDepartmentIDs(ctx, rule.NotifyDepartmentIDs())
	if err != nil {
		return nil, err
	}
	users = append(users, deptUsers...)

	users = dedupeUsers(users)
	if len(users) > 0 {
		return users, nil
	}

	// 回退到告警目标的责任人
	principal, err := s.targetPrincipal(ctx, record)
	if err != nil {
		s.logger.Warn("查找告警目标责任人失败",
			zap.String("alertCode", record.AlertCode),
			zap.String("targetType", record.TargetType),
			zap.Int64("targetId", record.TargetID),
			zap.Error(err))
		return nil, nil
	}
	if principal != nil && principal.Enabled {
		return []models.User{*principal}, nil
	}
	return nil, nil
}

// targetPrincipal 按目标类型查找责任人: 站点负责人/设备所属站点负责人/任务执行人
func (s *AlertService) targetPrincipal(ctx context.Context, record *models.AlertRecord) (*models.User, error) {
	switch record.TargetType {
	case models.TargetTypeSite:
		return s.sitePrincipal(ctx, record.TargetID)
	case models.TargetTypeDevice:
		device, err := s.siteRepo.GetDevice(ctx, record.TargetID)
		if err != nil {
			return nil, err
		}
		return s.sitePrincipal(ctx, device.SiteID)
	case models.TargetTypeTask:
		job, err := s.jobRepo.GetJob(ctx, record.TargetID)
		if err != nil {
			return nil, err
		}
		if job.AssigneeUserID == 0 {
			return s.sitePrincipal(ctx, job.SiteID)
		}
		return s.userRepo.GetUser(ctx, job.AssigneeUserID)
	default:
		return nil, nil
	}
}

func (s *AlertService) sitePrincipal(ctx context.Context, siteID int64) (*models.User, error) {
	site, err := s.siteRepo.GetSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if site.PrincipalUserID == 0 {
		return nil, nil
	}
	return s.userRepo.GetUser(ctx, site.PrincipalUserID)
}

func dedupeUsers(users []models.User) []models.User {
	seen := make(map[int64]struct{}, len(users))
	result := make([]models.User, 0, len(users))
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		result = append(result, u)
	}
	return result
}
