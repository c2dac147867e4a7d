package repo

import (
	"context"

	"aquawatch/internal/models"

	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

type AlertNotifyLogRepo struct {
	orz.Repository[models.AlertNotifyLog, int64]
	db *gorm.DB
}

func NewAlertNotifyLogRepo(db *gorm.DB) *AlertNotifyLogRepo {
	return &AlertNotifyLogRepo{
		Repository: orz.NewRepository[models.AlertNotifyLog, int64](db),
		db:         db,
	}
}

// BatchCreate 批量创建通知记录
func (r *AlertNotifyLogRepo) BatchCreate(ctx context.Context, logs []*models.AlertNotifyLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(logs).Error
}

// UpdateLog 更新通知记录
func (r *AlertNotifyLogRepo) UpdateLog(ctx context.Context, log *models.AlertNotifyLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

// GetLog 获取通知记录
func (r *AlertNotifyLogRepo) GetLog(ctx context.Context, id int64) (*models.AlertNotifyLog, error) {
	var log models.AlertNotifyLog
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByAlertRecordID 查找某条告警的全部通知记录
func (r *AlertNotifyLogRepo) FindByAlertRecordID(ctx context.Context, alertRecordID int64) ([]models.AlertNotifyLog, error) {
	var logs []models.AlertNotifyLog
	err := r.db.WithContext(ctx).
		Where("alert_record_id = ?", alertRecordID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// FindByAlertAndScene 查找某条告警在指定场景下的通知记录
func (r *AlertNotifyLogRepo) FindByAlertAndScene(ctx context.Context, alertRecordID int64, scene models.NotifyScene) ([]models.AlertNotifyLog, error) {
	var logs []models.AlertNotifyLog
	err := r.db.WithContext(ctx).
		Where("alert_record_id = ? AND scene = ?", alertRecordID, scene).
		Find(&logs).Error
	return logs, err
}

// FindSuccessByAlertAndScene 查找某条告警在指定场景下发送成功的通知记录
func (r *AlertNotifyLogRepo) FindSuccessByAlertAndScene(ctx context.Context, alertRecordID int64, scene models.NotifyScene) ([]models.AlertNotifyLog, error) {
	var logs []models.AlertNotifyLog
	err := r.db.WithContext(ctx).
		Where("alert_record_id = ? AND scene = ? AND status = ?", alertRecordID, scene, models.NotifyStatusSuccess).
		Find(&logs).Error
	return logs, err
}

// FindFailedRetryable 查找可重试的失败通知记录
func (r *AlertNotifyLogRepo) FindFailedRetryable(ctx context.Context, limit int) ([]models.AlertNotifyLog, error) {
	var logs []models.AlertNotifyLog
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", models.NotifyStatusFailed, models.MaxNotifyRetry).
		Order("created_at ASC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// PageLogs 分页查询通知记录
func (r *AlertNotifyLogRepo) PageLogs(ctx context.Context, alertRecordID int64, status models.NotifyStatus, limit int, offset int) ([]models.AlertNotifyLog, int64, error) {
	var logs []models.AlertNotifyLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AlertNotifyLog{})
	if alertRecordID > 0 {
		query = query.Where("alert_record_id = ?", alertRecordID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, total, err
}
