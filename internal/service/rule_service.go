package service

import (
	"context"

	"aquawatch/internal/models"
	"aquawatch/internal/repo"

	"github.com/go-errors/errors"
	"go.uber.org/zap"
)

// RuleService 告警规则管理
type RuleService struct {
	logger   *zap.Logger
	ruleRepo *repo.AlertRuleRepo
}

func NewRuleService(logger *zap.Logger, ruleRepo *repo.AlertRuleRepo) *RuleService {
	return &RuleService{
		logger:   logger,
		ruleRepo: ruleRepo,
	}
}

// CreateRule 创建告警规则
func (s *RuleService) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	if rule.RuleName == "" {
		return errors.New("规则名称不能为空")
	}
	if rule.RuleType == "" {
		return errors.New("规则类型不能为空")
	}
	if rule.AlertLevel == 0 {
		return errors.New("告警级别不能为空")
	}
	if !rule.ValidateConditions() {
		return errors.New("告警条件配置无效")
	}

	exists, err := s.ruleRepo.ExistsByRuleName(ctx, rule.RuleName, 0)
	if err != nil {
		return err
	}
	if exists {
		return errors.Errorf("规则名称已存在: %s", rule.RuleName)
	}

	rule.Enabled = true
	if err := s.ruleRepo.CreateRule(ctx, rule); err != nil {
		return err
	}
	s.logger.Info("创建告警规则",
		zap.Int64("ruleId", rule.ID),
		zap.String("ruleName", rule.RuleName),
		zap.String("ruleType", string(rule.RuleType)))
	return nil
}

// UpdateRule 更新告警规则
func (s *RuleService) UpdateRule(ctx context.Context, rule *models.AlertRule) error {
	existing, err := s.ruleRepo.GetRule(ctx, rule.ID)
	if err != nil {
		return errors.New("告警规则不存在")
	}
	if rule.RuleName == "" {
		return errors.New("规则名称不能为空")
	}
	if !rule.ValidateConditions() {
		return errors.New("告警条件配置无效")
	}

	if rule.RuleName != existing.RuleName {
		exists, err := s.ruleRepo.ExistsByRuleName(ctx, rule.RuleName, rule.ID)
		if err != nil {
			return err
		}
		if exists {
			return errors.Errorf("规则名称已存在: %s", rule.RuleName)
		}
	}

	rule.Creator = existing.Creator
	rule.CreatedAt = existing.CreatedAt
	rule.Enabled = existing.Enabled
	return s.ruleRepo.UpdateRule(ctx, rule)
}

// EnableRule 启用规则
func (s *RuleService) EnableRule(ctx context.Context, id int64) error {
	rule, err := s.ruleRepo.GetRule(ctx, id)
	if err != nil {
		return errors.New("告警规则不存在")
	}
	if rule.Enabled {
		return errors.New("规则已经是启用状态")
	}
	rule.Enabled = true
	return s.ruleRepo.UpdateRule(ctx, rule)
}

// DisableRule 禁用规则
func (s *RuleService) DisableRule(ctx context.Context, id int64) error {
	rule, err := s.ruleRepo.GetRule(ctx, id)
	if err != nil {
		return errors.New("告警规则不存在")
	}
	if !rule.Enabled {
		return errors.New("规则已经是禁用状态")
	}
	rule.Enabled = false
	return s.ruleRepo.UpdateRule(ctx, rule)
}

// DeleteRule 删除告警规则
func (s *RuleService) DeleteRule(ctx context.Context, id int64) error {
	if _, err := s.ruleRepo.GetRule(ctx, id); err != nil {
		return errors.New("告警规则不存在")
	}
	return s.ruleRepo.DeleteRule(ctx, id)
}

// GetRule 获取告警规则
func (s *RuleService) GetRule(ctx context.Context, id int64) (*models.AlertRule, error) {
	return s.ruleRepo.GetRule(ctx, id)
}

// PageRules 分页查询告警规则
func (s *RuleService) PageRules(ctx context.Context, keyword string, limit int, offset int) ([]models.AlertRule, int64, error) {
	return s.ruleRepo.PageRules(ctx, keyword, limit, offset)
}
