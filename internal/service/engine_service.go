package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"aquawatch/internal/collector"
	"aquawatch/internal/metrics"
	"aquawatch/internal/models"

	"github.com/google/uuid"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 默认告警消息模板
const defaultAlertTemplate = "【{level}】{ruleName}: {targetName} {metric} 当前值 {value}"

// RuleSource 告警规则来源
type RuleSource interface {
	FindAllEnabled(ctx context.Context) ([]models.AlertRule, error)
	GetRule(ctx context.Context, id int64) (*models.AlertRule, error)
}

// AlertRecordStore 告警记录存储
type AlertRecordStore interface {
	CreateIfNotSuppressed(ctx context.Context, record *models.AlertRecord, quietPeriodMinutes int, now int64) (bool, error)
	FindByStatuses(ctx context.Context, statuses []models.AlertStatus) ([]models.AlertRecord, error)
	UpdateRecord(ctx context.Context, record *models.AlertRecord) error
}

// TaskCreator 告警整改任务创建器
type TaskCreator interface {
	CreateForAlert(ctx context.Context, record *models.AlertRecord) (int64, error)
}

// AlertNotifier 告警事件通知出口
type AlertNotifier interface {
	NotifyCreated(record *models.AlertRecord)
	NotifyRecovered(record *models.AlertRecord)
}

// EngineService 告警规则评估引擎。
// 定时扫描启用的规则，按条件采集指标并评估，触发或恢复告警。
type EngineService struct {
	logger   *zap.Logger
	rules    RuleSource
	records  AlertRecordStore
	registry *collector.Registry
	tasks    TaskCreator
	notifier AlertNotifier
	clock    Clock
}

func NewEngineService(logger *zap.Logger, rules RuleSource, records AlertRecordStore,
	registry *collector.Registry, tasks TaskCreator, notifier AlertNotifier, clock Clock) *EngineService {
	return &EngineService{
		logger:   logger,
		rules:    rules,
		records:  records,
		registry: registry,
		tasks:    tasks,
		notifier: notifier,
		clock:    clock,
	}
}

// CheckValue 检查指标值是否满足条件
func CheckValue(condition models.RuleCondition, value float64) bool {
	switch condition.Operator {
	case models.OperatorGT:
		return value > *condition.Threshold
	case models.OperatorGTE:
		return value >= *condition.Threshold
	case models.OperatorLT:
		return value < *condition.Threshold
	case models.OperatorLTE:
		return value <= *condition.Threshold
	case models.OperatorEQ:
		return value == *condition.Threshold
	case models.OperatorNEQ:
		return value != *condition.Threshold
	case models.OperatorBetween:
		return value >= *condition.MinThreshold && value <= *condition.MaxThreshold
	case models.OperatorNotBetween:
		return value < *condition.MinThreshold || value > *condition.MaxThreshold
	default:
		return false
	}
}

// ScanAndEvaluate 扫描所有启用的规则并逐条评估。
// 单条规则评估失败只记录日志，不影响其他规则。
func (s *EngineService) ScanAndEvaluate(ctx context.Context) error {
	rules, err := s.rules.FindAllEnabled(ctx)
	if err != nil {
		metrics.RuleSweeps.WithLabelValues("error").Inc()
		return fmt.Errorf("查询启用的告警规则失败: %w", err)
	}

	for i := range rules {
		rule := rules[i]
		if err := s.evaluateRule(ctx, &rule); err != nil {
			s.logger.Error("评估告警规则失败",
				zap.Int64("ruleId", rule.ID),
				zap.String("ruleName", rule.RuleName),
				zap.Error(err))
		}
	}

	metrics.RuleSweeps.WithLabelValues("success").Inc()
	return nil
}

type targetKey struct {
	Type string
	ID   int64
}

// evaluateRule 评估单条规则。
// 按目标对象分组，所有条件都满足的目标才触发告警（AND逻辑）。
func (s *EngineService) evaluateRule(ctx context.Context, rule *models.AlertRule) error {
	conditions := rule.EffectiveConditions()
	if len(conditions) == 0 {
		return nil
	}

	// triggered 维护仍然满足全部已评估条件的目标集合
	triggered := make(map[targetKey][]models.Metric)
	for i, condition := range conditions {
		if !condition.IsValid() {
			return fmt.Errorf("规则条件配置无效: metric=%s operator=%s", condition.Metric, condition.Operator)
		}

		matched, err := s.collectMatched(ctx, condition)
		if err != nil {
			return err
		}

		if i == 0 {
			for key, m := range matched {
				triggered[key] = []models.Metric{m}
			}
		} else {
			for key := range triggered {
				if m, ok := matched[key]; ok {
					triggered[key] = append(triggered[key], m)
				} else {
					delete(triggered, key)
				}
			}
		}
		if len(triggered) == 0 {
			return nil
		}
	}

	for key, triggeredMetrics := range triggered {
		if err := s.fireAlert(ctx, rule, key, triggeredMetrics); err != nil {
			s.logger.Error("创建告警记录失败",
				zap.Int64("ruleId", rule.ID),
				zap.String("targetType", key.Type),
				zap.Int64("targetId", key.ID),
				zap.Error(err))
		}
	}
	return nil
}

// collectMatched 采集条件指标并返回满足条件的目标集合。
// 未知指标没有对应采集器，视为空结果。
func (s *EngineService) collectMatched(ctx context.Context, condition models.RuleCondition) (map[targetKey]models.Metric, error) {
	matched := make(map[targetKey]models.Metric)

	col, ok := s.registry.Lookup(condition.Metric)
	if !ok {
		s.logger.Warn("未找到指标对应的采集器", zap.String("metric", condition.Metric))
		return matched, nil
	}

	collected, err := col.CollectAll(ctx, condition.Metric)
	if err != nil {
		return nil, fmt.Errorf("采集指标失败: metric=%s: %w", condition.Metric, err)
	}

	for _, m := range collected {
		// 无有效数据不触发
		if m.Value == nil {
			continue
		}
		if CheckValue(condition, *m.Value) {
			matched[targetKey{Type: m.TargetType, ID: m.TargetID}] = m
		}
	}
	return matched, nil
}

// fireAlert 对满足条件的目标创建告警记录并发出通知
func (s *EngineService) fireAlert(ctx context.Context, rule *models.AlertRule, key targetKey, triggeredMetrics []models.Metric) error {
	now := s.clock.Now().UnixMilli()

	alertData, _ := json.Marshal(map[string]any{"metrics": triggeredMetrics})
	record := &models.AlertRecord{
		AlertCode:    uuid.NewString(),
		RuleID:       rule.ID,
		RuleName:     rule.RuleName,
		RuleType:     rule.RuleType,
		AlertLevel:   rule.AlertLevel,
		TargetType:   key.Type,
		TargetID:     key.ID,
		TargetName:   triggeredMetrics[0].TargetName,
		AlertMessage: s.renderMessage(rule, triggeredMetrics[0], now),
		AlertData:    datatypes.JSON(alertData),
		Status:       models.AlertStatusPending,
		NotifyStatus: models.NotifyStatusPending,
		CreatedAt:    now,
	}

	// 告警对象本身是任务时直接关联，避免再为它创建整改任务
	if rule.RuleType.IsTaskBased() && key.Type == models.TargetTypeTask {
		record.JobInstanceID = key.ID
		record.IsSelfTask = true
	}

	created, err := s.records.CreateIfNotSuppressed(ctx, record, rule.QuietPeriod, now)
	if err != nil {
		return err
	}
	if !created {
		metrics.AlertsSuppressed.Inc()
		s.logger.Debug("告警被抑制",
			zap.Int64("ruleId", rule.ID),
			zap.String("targetType", key.Type),
			zap.Int64("targetId", key.ID))
		return nil
	}

	metrics.AlertsCreated.WithLabelValues(strconv.Itoa(int(rule.AlertLevel))).Inc()
	s.logger.Info("触发告警",
		zap.String("alertCode", record.AlertCode),
		zap.String("ruleName", rule.RuleName),
		zap.String("targetName", record.TargetName),
		zap.Int("alertLevel", int(rule.AlertLevel)))

	if !record.IsSelfTask && s.tasks != nil {
		jobID, err := s.tasks.CreateForAlert(ctx, record)
		if err != nil {
			s.logger.Error("创建告警整改任务失败",
				zap.String("alertCode", record.AlertCode),
				zap.Error(err))
		} else {
			record.AssociateJobInstance(jobID)
			if err := s.records.UpdateRecord(ctx, record); err != nil {
				s.logger.Error("关联整改任务失败",
					zap.String("alertCode", record.AlertCode),
					zap.Error(err))
			}
		}
	}

	s.notifier.NotifyCreated(record)
	return nil
}

// renderMessage 渲染告警消息
func (s *EngineService) renderMessage(rule *models.AlertRule, metric models.Metric, now int64) string {
	template := rule.AlertMessage
	if template == "" {
		template = defaultAlertTemplate
	}
	value := ""
	if metric.Value != nil {
		value = strconv.FormatFloat(*metric.Value, 'f', -1, 64)
	}
	t := fasttemplate.New(template, "{", "}")
	return t.ExecuteString(map[string]interface{}{
		"ruleName":   rule.RuleName,
		"targetName": metric.TargetName,
		"metric":     metric.Name,
		"value":      value,
		"level":      rule.AlertLevel.Description(),
		"time":       time.UnixMilli(now).Format("2006-01-02 15:04:05"),
	})
}

// CheckAndRecover 检查未关闭的告警，条件不再满足的自动恢复
func (s *EngineService) CheckAndRecover(ctx context.Context) error {
	records, err := s.records.FindByStatuses(ctx, []models.AlertStatus{
		models.AlertStatusPending,
		models.AlertStatusInProgress,
	})
	if err != nil {
		return fmt.Errorf("查询未关闭的告警失败: %w", err)
	}

	for i := range records {
		record := records[i]
		if err := s.checkRecovery(ctx, &record); err != nil {
			s.logger.Error("检查告警恢复失败",
				zap.String("alertCode", record.AlertCode),
				zap.Error(err))
		}
	}
	return nil
}

// checkRecovery 重新评估单条告警的触发条件
func (s *EngineService) checkRecovery(ctx context.Context, record *models.AlertRecord) error {
	rule, err := s.rules.GetRule(ctx, record.RuleID)
	if err != nil {
		// 规则已被删除的告警保留人工处理
		s.logger.Debug("告警对应的规则不存在，跳过恢复检查",
			zap.String("alertCode", record.AlertCode),
			zap.Int64("ruleId", record.RuleID))
		return nil
	}

	still, err := s.stillTriggered(ctx, rule, record)
	if err != nil {
		return err
	}
	if still {
		return nil
	}

	now := s.clock.Now().UnixMilli()
	if err := record.Recover(now); err != nil {
		return err
	}
	if err := s.records.UpdateRecord(ctx, record); err != nil {
		return err
	}

	metrics.AlertsRecovered.Inc()
	s.logger.Info("告警自动恢复",
		zap.String("alertCode", record.AlertCode),
		zap.String("ruleName", record.RuleName),
		zap.String("targetName", record.TargetName),
		zap.Int64("durationMinutes", record.Duration))

	s.notifier.NotifyRecovered(record)
	return nil
}

// stillTriggered 告警目标是否仍然满足规则的全部条件
func (s *EngineService) stillTriggered(ctx context.Context, rule *models.AlertRule, record *models.AlertRecord) (bool, error) {
	conditions := rule.EffectiveConditions()
	if len(conditions) == 0 {
		return false, nil
	}
	key := targetKey{Type: record.TargetType, ID: record.TargetID}
	for _, condition := range conditions {
		if !condition.IsValid() {
			return false, fmt.Errorf("规则条件配置无效: metric=%s", condition.Metric)
		}
		matched, err := s.collectMatched(ctx, condition)
		if err != nil {
			return false, err
		}
		if _, ok := matched[key]; !ok {
			return false, nil
		}
	}
	return true, nil
}
