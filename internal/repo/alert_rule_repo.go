package repo

import (
	"context"

	"aquawatch/internal/models"

	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

type AlertRuleRepo struct {
	orz.Repository[models.AlertRule, int64]
	db *gorm.DB
}

func NewAlertRuleRepo(db *gorm.DB) *AlertRuleRepo {
	return &AlertRuleRepo{
		Repository: orz.NewRepository[models.AlertRule, int64](db),
		db:         db,
	}
}

// CreateRule 创建告警规则
func (r *AlertRuleRepo) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	rule.EncodeConditions()
	return r.db.WithContext(ctx).Create(rule).Error
}

// UpdateRule 更新告警规则
func (r *AlertRuleRepo) UpdateRule(ctx context.Context, rule *models.AlertRule) error {
	rule.EncodeConditions()
	return r.db.WithContext(ctx).Save(rule).Error
}

// DeleteRule 删除告警规则（软删除）
func (r *AlertRuleRepo) DeleteRule(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.AlertRule{}, "id = ?", id).Error
}

// GetRule 获取告警规则
func (r *AlertRuleRepo) GetRule(ctx context.Context, id int64) (*models.AlertRule, error) {
	var rule models.AlertRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		return nil, err
	}
	rule.DecodeConditions()
	return &rule, nil
}

// ExistsByRuleName 规则名称是否已被其他规则占用
func (r *AlertRuleRepo) ExistsByRuleName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AlertRule{}).
		Where("rule_name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

// FindAllEnabled 查找所有已启用的告警规则
func (r *AlertRuleRepo) FindAllEnabled(ctx context.Context) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Find(&rules).Error
	for i := range rules {
		rules[i].DecodeConditions()
	}
	return rules, err
}

// FindEnabledByType 按规则类型查找已启用的告警规则
func (r *AlertRuleRepo) FindEnabledByType(ctx context.Context, ruleType models.AlertRuleType) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	err := r.db.WithContext(ctx).
		Where("enabled = ? AND rule_type = ?", true, ruleType).
		Find(&rules).Error
	for i := range rules {
		rules[i].DecodeConditions()
	}
	return rules, err
}

// PageRules 分页查询告警规则
func (r *AlertRuleRepo) PageRules(ctx context.Context, keyword string, limit int, offset int) ([]models.AlertRule, int64, error) {
	var rules []models.AlertRule
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AlertRule{})
	if keyword != "" {
		query = query.Where("rule_name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rules).Error
	for i := range rules {
		rules[i].DecodeConditions()
	}
	return rules, total, err
}
