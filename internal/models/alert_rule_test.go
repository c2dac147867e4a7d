package models

import "testing"

func f(v float64) *float64 {
	return &v
}

func TestRuleConditionIsValid(t *testing.T) {
	tests := []struct {
		name      string
		condition RuleCondition
		want      bool
	}{
		{"单值运算符有阈值", RuleCondition{Metric: "pH值", Operator: OperatorGT, Threshold: f(9)}, true},
		{"单值运算符缺阈值", RuleCondition{Metric: "pH值", Operator: OperatorGT}, false},
		{"区间运算符有上下限", RuleCondition{Metric: "pH值", Operator: OperatorBetween, MinThreshold: f(6), MaxThreshold: f(9)}, true},
		{"区间运算符缺下限", RuleCondition{Metric: "pH值", Operator: OperatorBetween, MaxThreshold: f(9)}, false},
		{"区间下限大于上限", RuleCondition{Metric: "pH值", Operator: OperatorBetween, MinThreshold: f(9), MaxThreshold: f(6)}, false},
		{"区间外运算符下限大于上限", RuleCondition{Metric: "pH值", Operator: OperatorNotBetween, MinThreshold: f(9), MaxThreshold: f(6)}, false},
		{"缺指标名称", RuleCondition{Operator: OperatorGT, Threshold: f(9)}, false},
		{"未知运算符", RuleCondition{Metric: "pH值", Operator: "LIKE", Threshold: f(9)}, false},
	}
	for _, tt := range tests {
		if got := tt.condition.IsValid(); got != tt.want {
			t.Errorf("%s: IsValid() = %v, 期望 %v", tt.name, got, tt.want)
		}
	}
}

func TestEffectiveConditions(t *testing.T) {
	// 阈值规则使用配置的条件
	threshold := &AlertRule{
		RuleType:   RuleTypeThreshold,
		Conditions: []RuleCondition{{Metric: "化学需氧量", Operator: OperatorGT, Threshold: f(40)}},
	}
	conditions := threshold.EffectiveConditions()
	if len(conditions) != 1 || conditions[0].Metric != "化学需氧量" {
		t.Errorf("阈值规则条件不正确: %+v", conditions)
	}

	// 设备离线规则合成内置条件: 设备在线 EQ 0
	offline := &AlertRule{RuleType: RuleTypeOffline}
	conditions = offline.EffectiveConditions()
	if len(conditions) != 1 {
		t.Fatalf("离线规则应有1个合成条件, 实际 %d", len(conditions))
	}
	if conditions[0].Metric != MetricDeviceOnline || conditions[0].Operator != OperatorEQ || *conditions[0].Threshold != 0 {
		t.Errorf("离线规则合成条件不正确: %+v", conditions[0])
	}

	// 任务超时规则合成内置条件: 任务超时 EQ 1
	timeout := &AlertRule{RuleType: RuleTypeTimeout}
	conditions = timeout.EffectiveConditions()
	if len(conditions) != 1 || conditions[0].Metric != MetricTaskTimeout || *conditions[0].Threshold != 1 {
		t.Errorf("超时规则合成条件不正确: %+v", conditions)
	}
}

func TestValidateConditions(t *testing.T) {
	// 阈值规则没有条件配置不合法
	rule := &AlertRule{RuleType: RuleTypeThreshold}
	if rule.ValidateConditions() {
		t.Error("阈值规则没有条件应不合法")
	}

	// 设备状态规则无需条件配置
	rule = &AlertRule{RuleType: RuleTypeFault}
	if !rule.ValidateConditions() {
		t.Error("故障规则无需条件配置")
	}

	// 存在无效条件不合法
	rule = &AlertRule{
		RuleType: RuleTypeThreshold,
		Conditions: []RuleCondition{
			{Metric: "pH值", Operator: OperatorGT, Threshold: f(9)},
			{Metric: "浊度", Operator: OperatorLT},
		},
	}
	if rule.ValidateConditions() {
		t.Error("存在无效条件时应不合法")
	}
}

func TestNotifyTypeList(t *testing.T) {
	// 未配置默认短信
	rule := &AlertRule{}
	types := rule.NotifyTypeList()
	if len(types) != 1 || types[0] != NotifySms {
		t.Errorf("默认通知方式应为短信, 实际 %v", types)
	}

	rule = &AlertRule{NotifyTypes: "sms, email ,wechat"}
	types = rule.NotifyTypeList()
	if len(types) != 3 || types[1] != NotifyEmail {
		t.Errorf("通知方式解析不正确: %v", types)
	}
}

func TestNotifyIDAccessors(t *testing.T) {
	rule := &AlertRule{NotifyUsers: "1,2, 3", NotifyDepartments: "10,abc,20"}
	users := rule.NotifyUserIDs()
	if len(users) != 3 || users[2] != 3 {
		t.Errorf("用户ID解析不正确: %v", users)
	}
	// 非法ID被跳过
	departments := rule.NotifyDepartmentIDs()
	if len(departments) != 2 || departments[1] != 20 {
		t.Errorf("部门ID解析不正确: %v", departments)
	}
}

func TestConditionsRoundTrip(t *testing.T) {
	rule := &AlertRule{
		RuleType:   RuleTypeThreshold,
		Conditions: []RuleCondition{{Metric: "pH值", Operator: OperatorNotBetween, MinThreshold: f(6), MaxThreshold: f(9)}},
	}
	rule.EncodeConditions()
	if rule.ConditionsStr == "" {
		t.Fatal("序列化结果不应为空")
	}

	restored := &AlertRule{ConditionsStr: rule.ConditionsStr}
	restored.DecodeConditions()
	if len(restored.Conditions) != 1 || restored.Conditions[0].Metric != "pH值" {
		t.Errorf("反序列化结果不正确: %+v", restored.Conditions)
	}
	if *restored.Conditions[0].MinThreshold != 6 || *restored.Conditions[0].MaxThreshold != 9 {
		t.Errorf("阈值反序列化不正确: %+v", restored.Conditions[0])
	}
}
