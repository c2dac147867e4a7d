package repo

import (
	"context"
	"errors"

	"aquawatch/internal/models"

	"github.com/go-orz/orz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlertRecordRepo struct {
	orz.Repository[models.AlertRecord, int64]
	db *gorm.DB
}

func NewAlertRecordRepo(db *gorm.DB) *AlertRecordRepo {
	return &AlertRecordRepo{
		Repository: orz.NewRepository[models.AlertRecord, int64](db),
		db:         db,
	}
}

// CreateIfNotSuppressed 在同一事务内检查抑制条件并创建告警记录。
// 同一（规则, 目标）存在未关闭告警、或最近一次告警仍在静默期内时不创建。
// 返回是否实际创建。
func (r *AlertRecordRepo) CreateIfNotSuppressed(ctx context.Context, record *models.AlertRecord, quietPeriodMinutes int, now int64) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("rule_id = ? AND target_type = ? AND target_id = ?",
			record.RuleID, record.TargetType, record.TargetID).
			Order("created_at DESC")
		// sqlite不支持行级锁，写事务本身已串行化
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var latest models.AlertRecord
		err := query.First(&latest).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			// 已有未关闭的告警，不再重复触发
			if latest.Status.IsActive() {
				return nil
			}
			// 静默期内不再触发
			if quietPeriodMinutes > 0 && now-latest.CreatedAt < int64(quietPeriodMinutes)*60*1000 {
				return nil
			}
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// UpdateRecord 更新告警记录
func (r *AlertRecordRepo) UpdateRecord(ctx context.Context, record *models.AlertRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// GetRecord 获取告警记录
func (r *AlertRecordRepo) GetRecord(ctx context.Context, id int64) (*models.AlertRecord, error) {
	var record models.AlertRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByStatuses 按状态集合查找告警记录
func (r *AlertRecordRepo) FindByStatuses(ctx context.Context, statuses []models.AlertStatus) ([]models.AlertRecord, error) {
	var records []models.AlertRecord
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Find(&records).Error
	return records, err
}

// PageRecords 分页查询告警记录
func (r *AlertRecordRepo) PageRecords(ctx context.Context, status models.AlertStatus, level models.AlertLevel, keyword string, limit int, offset int) ([]models.AlertRecord, int64, error) {
	var records []models.AlertRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AlertRecord{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if level > 0 {
		query = query.Where("alert_level = ?", level)
	}
	if keyword != "" {
		query = query.Where("rule_name LIKE ? OR target_name LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, total, err
}

// CountByStatus 按状态统计告警数量
func (r *AlertRecordRepo) CountByStatus(ctx context.Context, status models.AlertStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AlertRecord{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
