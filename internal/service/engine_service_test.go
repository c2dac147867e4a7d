package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"aquawatch/internal/collector"
	"aquawatch/internal/metrics"
	"aquawatch/internal/models"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func f(v float64) *float64 {
	return &v
}

// fakeClock 固定时间
type fakeClock struct {
	t time.Time
}

func (c fakeClock) Now() time.Time {
	return c.t
}

// fakeRuleSource 内存规则来源
type fakeRuleSource struct {
	rules []models.AlertRule
}

func (s *fakeRuleSource) FindAllEnabled(ctx context.Context) ([]models.AlertRule, error) {
	return s.rules, nil
}

func (s *fakeRuleSource) GetRule(ctx context.Context, id int64) (*models.AlertRule, error) {
	for i := range s.rules {
		if s.rules[i].ID == id {
			return &s.rules[i], nil
		}
	}
	return nil, errors.New("告警规则不存在")
}

// fakeRecordStore 内存告警记录存储
type fakeRecordStore struct {
	suppress bool
	created  []*models.AlertRecord
	records  []models.AlertRecord
	updated  []*models.AlertRecord
}

func (s *fakeRecordStore) CreateIfNotSuppressed(ctx context.Context, record *models.AlertRecord, quietPeriodMinutes int, now int64) (bool, error) {
	if s.suppress {
		return false, nil
	}
	record.ID = int64(len(s.created) + 1)
	s.created = append(s.created, record)
	return true, nil
}

func (s *fakeRecordStore) FindByStatuses(ctx context.Context, statuses []models.AlertStatus) ([]models.AlertRecord, error) {
	var result []models.AlertRecord
	for _, record := range s.records {
		for _, status := range statuses {
			if record.Status == status {
				result = append(result, record)
				break
			}
		}
	}
	return result, nil
}

func (s *fakeRecordStore) UpdateRecord(ctx context.Context, record *models.AlertRecord) error {
	s.updated = append(s.updated, record)
	return nil
}

func (s *fakeRecordStore) GetRecord(ctx context.Context, id int64) (*models.AlertRecord, error) {
	for _, record := range s.created {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, errors.New("告警记录不存在")
}

// fakeCollector 固定返回值的采集器
type fakeCollector struct {
	metric  string
	metrics []models.Metric
}

func (c *fakeCollector) Name() string {
	return "fake"
}

func (c *fakeCollector) Supports(metric string) bool {
	return metric == c.metric
}

func (c *fakeCollector) CollectAll(ctx context.Context, metric string) ([]models.Metric, error) {
	return c.metrics, nil
}

// fakeNotifier 记录收到的事件
type fakeNotifier struct {
	created   []*models.AlertRecord
	recovered []*models.AlertRecord
}

func (n *fakeNotifier) NotifyCreated(record *models.AlertRecord) {
	n.created = append(n.created, record)
}

func (n *fakeNotifier) NotifyRecovered(record *models.AlertRecord) {
	n.recovered = append(n.recovered, record)
}

func newTestEngine(rules *fakeRuleSource, store *fakeRecordStore, notifier *fakeNotifier, collectors ...collector.MetricCollector) *EngineService {
	registry := collector.NewRegistry(collectors...)
	clock := fakeClock{t: time.UnixMilli(10 * 60 * 1000)}
	return NewEngineService(zap.NewNop(), rules, store, registry, nil, notifier, clock)
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		name      string
		condition models.RuleCondition
		value     float64
		want      bool
	}{
		{"大于满足", models.RuleCondition{Operator: models.OperatorGT, Threshold: f(9)}, 9.5, true},
		{"大于不满足(相等)", models.RuleCondition{Operator: models.OperatorGT, Threshold: f(9)}, 9, false},
		{"大于等于满足(相等)", models.RuleCondition{Operator: models.OperatorGTE, Threshold: f(9)}, 9, true},
		{"小于满足", models.RuleCondition{Operator: models.OperatorLT, Threshold: f(6)}, 5.9, true},
		{"小于等于满足", models.RuleCondition{Operator: models.OperatorLTE, Threshold: f(6)}, 6, true},
		{"等于满足", models.RuleCondition{Operator: models.OperatorEQ, Threshold: f(1)}, 1, true},
		{"不等于满足", models.RuleCondition{Operator: models.OperatorNEQ, Threshold: f(1)}, 0, true},
		{"区间内含下边界", models.RuleCondition{Operator: models.OperatorBetween, MinThreshold: f(6), MaxThreshold: f(9)}, 6, true},
		{"区间内含上边界", models.RuleCondition{Operator: models.OperatorBetween, MinThreshold: f(6), MaxThreshold: f(9)}, 9, true},
		{"区间外不满足", models.RuleCondition{Operator: models.OperatorBetween, MinThreshold: f(6), MaxThreshold: f(9)}, 9.1, false},
		{"区间外满足(小于下限)", models.RuleCondition{Operator: models.OperatorNotBetween, MinThreshold: f(6), MaxThreshold: f(9)}, 5.9, true},
		{"区间外不满足(边界)", models.RuleCondition{Operator: models.OperatorNotBetween, MinThreshold: f(6), MaxThreshold: f(9)}, 6, false},
		{"未知运算符不满足", models.RuleCondition{Operator: "LIKE", Threshold: f(1)}, 1, false},
	}
	for _, tt := range tests {
		if got := CheckValue(tt.condition, tt.value); got != tt.want {
			t.Errorf("%s: CheckValue() = %v, 期望 %v", tt.name, got, tt.want)
		}
	}
}

func TestScanAndEvaluateThreshold(t *testing.T) {
	rules := &fakeRuleSource{rules: []models.AlertRule{{
		ID:         1,
		RuleName:   "pH超标",
		RuleType:   models.RuleTypeThreshold,
		AlertLevel: models.LevelImportant,
		Conditions: []models.RuleCondition{{Metric: "pH值", Operator: models.OperatorGT, Threshold: f(9)}},
		Enabled:    true,
	}}}
	store := &fakeRecordStore{}
	notifier := &fakeNotifier{}
	engine := newTestEngine(rules, store, notifier, &fakeCollector{
		metric: "pH值",
		metrics: []models.Metric{
			{Name: "pH值", TargetType: models.TargetTypeSite, TargetID: 1, TargetName: "一号站", Value: f(9.5)},
			{Name: "pH值", TargetType: models.TargetTypeSite, TargetID: 2, TargetName: "二号站", Value: f(7)},
		},
	})

	if err := engine.ScanAndEvaluate(context.Background()); err != nil {
		t.Fatalf("评估失败: %v", err)
	}

	// 只有超标的站点触发告警
	if len(store.created) != 1 {
		t.Fatalf("应创建1条告警, 实际 %d", len(store.created))
	}
	record := store.created[0]
	if record.TargetID != 1 || record.TargetName != "一号站" {
		t.Errorf("告警目标不正确: %+v", record)
	}
	if record.Status != models.AlertStatusPending || record.NotifyStatus != models.NotifyStatusPending {
		t.Errorf("初始状态不正确: status=%s notifyStatus=%s", record.Status, record.NotifyStatus)
	}
	if record.AlertCode == "" {
		t.Error("告警编号不应为空")
	}
	if len(notifier.created) != 1 {
		t.Errorf("应发出1次触发事件, 实际 %d", len(notifier.created))
	}
}

func TestScanAndEvaluateAndSemantics(t *testing.T) {
	// 两个条件都满足的目标才触发
	rules := &fakeRuleSource{rules: []models.AlertRule{{
		ID:       1,
		RuleName: "综合超标",
		RuleType: models.RuleTypeThreshold,
		Conditions: []models.RuleCondition{
			{Metric: "pH值", Operator: models.OperatorGT, Threshold: f(9)},
			{Metric: "化学需氧量", Operator: models.OperatorGT, Threshold: f(40)},
		},
		Enabled: true,
	}}}
	store := &fakeRecordStore{}
	notifier := &fakeNotifier{}
	engine := newTestEngine(rules, store, notifier,
		&fakeCollector{metric: "pH值", metrics: []models.Metric{
			{Name: "pH值", TargetType: models.TargetTypeSite, TargetID: 1, TargetName: "一号站", Value: f(9.5)},
			{Name: "pH值", TargetType: models.TargetTypeSite, TargetID: 2, TargetName: "二号站", Value: f(9.5)},
		}},
		&fakeCollector{metric: "化学需氧量", metrics: []models.Metric{
			{Name: "化学需氧量", TargetType: models.TargetTypeSite, TargetID: 1, TargetName: "一号站", Value: f(50)},
			{Name: "化学需氧量", TargetType: models.TargetTypeSite, TargetID: 2, TargetName: "二号站", Value: f(30)},
		}},
	)

	if err := engine.ScanAndEvaluate(context.Background()); err != nil {
		t.Fatalf("评估失败: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("应只有同时满足两个条件的目标触发, 实际创建 %d 条", len(store.created))
	}
	if store.created[0].TargetID != 1 {
		t.Errorf("触发目标不正确: %+v", store.created[0])
	}
}

func TestScanAndEvaluateNilValue(t *testing.T) {
	// 无有效数据不触发
	rules := &fakeRuleSource{rules: []models.AlertRule{{
		ID:         1,
		RuleName:   "pH超标",
		RuleType:   models.RuleTypeThreshold,
		Conditions: []models.RuleCondition{{Metric: "pH值", Operator: models.OperatorGT, Threshold: f(9)}},
		Enabled:    true,
	}}}
	store := &fakeRecordStore{}
	notifier := &fakeNotifier{}
	engine := newTestEngine(rules, store, notifier, &fakeCollector{
		metric: "pH值",
		metrics: []models.Metric{
			{Name: "pH值", TargetType: models.TargetTypeSite, TargetID: 1, TargetName: "一号站", Value: nil},
		},
	})

	if err := engine.ScanAndEvaluate(context.Background()); err != nil {
		t.Fatalf("评估失败: %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("无有效数据不应触发告警, 实际创建 %d 条", len(store.created))
	}
}

func TestScanAndEvaluateSuppressed(t *testing.T) {
	// 静默期内不创建告警也不发通知
	rules := &fakeRuleSource{rules: []models.AlertRule{{
		ID:          1,
		RuleName:    "pH超标",
		RuleType:    models.RuleTypeThreshold,
		QuietPeriod: 30,
		Conditions:  []models.RuleCondition{{Metric: "pH值", Operator: models.OperatorGT, Threshold: f(9)}},
		Enabled:     true,
	}}}
	store := &fakeRecordStore{suppress: true}
	notifier := &fakeNotifier{}
	engine := newTestEngine(rules, store, notifier, &fakeCollector{
		metric: "pH值",
		metrics: []models.Metric{
			{Name: "pH值", TargetType: models.TargetTypeSite, TargetID: 1, TargetName: "一号站", Value: f(9.5)},
		},
	})

	if err := engine.ScanAndEvaluate(context.Background()); err != nil {
		t.Fatalf("评估失败: %v", err)
	}
	if len(store.created) != 0 || len(notifier.created) != 0 {
		t.Errorf("被抑制时不应创建告警或发通知: created=%d notified=%d", len(store.created), len(notifier.created))
	}
}

func TestScanAndEvaluateUnknownMetric(t *testing.T) {
	// 未知指标视为空结果, 不触发
	rules := &fakeRuleSource{rules: []models.AlertRule{{
		ID:         1,
		RuleName:   "未知指标",
		RuleType:   models.RuleTypeThreshold,
		Conditions: []models.RuleCondition{{Metric: "不存在的指标", Operator: models.OperatorGT, Threshold: f(1)}},
		Enabled:    true,
	}}}
	store := &fakeRecordStore{}
	notifier := &fakeNotifier{}
	engine := newTestEngine(rules, store, notifier)

	if err := engine.ScanAndEvaluate(context.Background()); err != nil {
		t.Fatalf("评估失败: %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("未知指标不应触发告警, 实际创建 %d 条", len(store.created))
	}
}

func TestCheckAndRecover(t *testing.T) {
	rules := &fakeRuleSource{rules: []models.AlertRule{{
		ID:       1,
		RuleName: "设备离线",
		RuleType: models.RuleTypeOffline,
		Enabled:  true,
	}}}
	store := &fakeRecordStore{records: []models.AlertRecord{
		{ID: 1, AlertCode: "a-1", RuleID: 1, TargetType: models.TargetTypeDevice, TargetID: 1, Status: models.AlertStatusPending, CreatedAt: 0},
		{ID: 2, AlertCode: "a-2", RuleID: 1, TargetType: models.TargetTypeDevice, TargetID: 2, Status: models.AlertStatusInProgress, CreatedAt: 0},
	}}
	notifier := &fakeNotifier{}
	// 设备1已恢复在线, 设备2仍然离线
	engine := newTestEngine(rules, store, notifier, &fakeCollector{
		metric: models.MetricDeviceOnline,
		metrics: []models.Metric{
			{Name: models.MetricDeviceOnline, TargetType: models.TargetTypeDevice, TargetID: 1, TargetName: "设备1", Value: f(1)},
			{Name: models.MetricDeviceOnline, TargetType: models.TargetTypeDevice, TargetID: 2, TargetName: "设备2", Value: f(0)},
		},
	})

	if err := engine.CheckAndRecover(context.Background()); err != nil {
		t.Fatalf("恢复检查失败: %v", err)
	}

	if len(store.updated) != 1 {
		t.Fatalf("应恢复1条告警, 实际 %d", len(store.updated))
	}
	recovered := store.updated[0]
	if recovered.AlertCode != "a-1" || recovered.Status != models.AlertStatusRecovered {
		t.Errorf("恢复结果不正确: %+v", recovered)
	}
	if recovered.Duration != 10 {
		t.Errorf("持续时长应为10分钟, 实际 %d", recovered.Duration)
	}
	if len(notifier.recovered) != 1 {
		t.Errorf("应发出1次恢复事件, 实际 %d", len(notifier.recovered))
	}
}
