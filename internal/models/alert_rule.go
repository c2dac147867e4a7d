package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// AlertRuleType 告警规则类型
type AlertRuleType string

const (
	RuleTypeThreshold AlertRuleType = "threshold" // 阈值告警（监测因子超标）
	RuleTypeOffline   AlertRuleType = "offline"   // 设备离线告警
	RuleTypeFault     AlertRuleType = "fault"     // 设备故障告警
	RuleTypeTimeout   AlertRuleType = "timeout"   // 任务超时告警
	RuleTypeAnomaly   AlertRuleType = "anomaly"   // 数据异常告警
)

// NeedConditionConfig 该类型是否需要手工配置条件
func (t AlertRuleType) NeedConditionConfig() bool {
	return t == RuleTypeThreshold || t == RuleTypeAnomaly
}

// IsDeviceStatusBased 是否基于设备状态
func (t AlertRuleType) IsDeviceStatusBased() bool {
	return t == RuleTypeOffline || t == RuleTypeFault
}

// IsTaskBased 是否基于任务状态
func (t AlertRuleType) IsTaskBased() bool {
	return t == RuleTypeTimeout
}

// AlertLevel 告警级别: 1紧急 2重要 3普通 4提示
type AlertLevel int

const (
	LevelUrgent    AlertLevel = 1 // 紧急
	LevelImportant AlertLevel = 2 // 重要
	LevelNormal    AlertLevel = 3 // 普通
	LevelInfo      AlertLevel = 4 // 提示
)

func (l AlertLevel) IsUrgent() bool {
	return l == LevelUrgent
}

// Description 级别中文描述
func (l AlertLevel) Description() string {
	switch l {
	case LevelUrgent:
		return "紧急"
	case LevelImportant:
		return "重要"
	case LevelNormal:
		return "普通"
	case LevelInfo:
		return "提示"
	default:
		return "未知"
	}
}

// ComparisonOperator 条件比较运算符
type ComparisonOperator string

const (
	OperatorGT         ComparisonOperator = "GT"          // 大于
	OperatorGTE        ComparisonOperator = "GTE"         // 大于等于
	OperatorLT         ComparisonOperator = "LT"          // 小于
	OperatorLTE        ComparisonOperator = "LTE"         // 小于等于
	OperatorEQ         ComparisonOperator = "EQ"          // 等于
	OperatorNEQ        ComparisonOperator = "NEQ"         // 不等于
	OperatorBetween    ComparisonOperator = "BETWEEN"     // 区间内（含边界）
	OperatorNotBetween ComparisonOperator = "NOT_BETWEEN" // 区间外
)

// RuleCondition 规则条件配置
type RuleCondition struct {
	Metric       string             `json:"metric"`                 // 指标名称，如 pH值、化学需氧量
	Operator     ComparisonOperator `json:"operator"`               // 比较运算符
	Threshold    *float64           `json:"threshold,omitempty"`    // 阈值（单值运算符使用）
	MinThreshold *float64           `json:"minThreshold,omitempty"` // 区间下限
	MaxThreshold *float64           `json:"maxThreshold,omitempty"` // 区间上限
}

// IsValid 条件配置是否完整
func (c RuleCondition) IsValid() bool {
	if c.Metric == "" {
		return false
	}
	switch c.Operator {
	case OperatorGT, OperatorGTE, OperatorLT, OperatorLTE, OperatorEQ, OperatorNEQ:
		return c.Threshold != nil
	case OperatorBetween, OperatorNotBetween:
		return c.MinThreshold != nil && c.MaxThreshold != nil && *c.MinThreshold <= *c.MaxThreshold
	default:
		return false
	}
}

// 内置指标名称（设备与任务状态类规则使用）
const (
	MetricDeviceOnline = "设备在线"
	MetricDeviceFault  = "设备故障"
	MetricTaskExpiring = "任务即将到期"
	MetricTaskTimeout  = "任务超时"
)

// AlertRule 告警规则
type AlertRule struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`    // 规则ID
	RuleName          string          `gorm:"uniqueIndex" json:"ruleName"`           // 规则名称
	RuleType          AlertRuleType   `gorm:"index" json:"ruleType"`                 // 规则类型
	Conditions        []RuleCondition `gorm:"-" json:"conditions"`                   // 条件配置列表（前端使用）
	ConditionsStr     string          `json:"-" gorm:"column:conditions"`            // 数据库存储（JSON序列化）
	AlertLevel        AlertLevel      `json:"alertLevel"`                            // 告警级别
	AlertMessage      string          `json:"alertMessage"`                          // 告警消息模板
	NotifyTypes       string          `json:"notifyTypes"`                           // 通知方式（逗号分隔: sms,email,push,wechat）
	NotifyUsers       string          `json:"notifyUsers"`                           // 通知用户ID（逗号分隔）
	NotifyDepartments string          `json:"notifyDepartments"`                     // 通知部门ID（逗号分隔）
	Enabled           bool            `json:"enabled"`                               // 是否启用
	QuietPeriod       int             `json:"quietPeriod"`                           // 静默期（分钟）
	Description       string          `json:"description"`                           // 规则描述
	Creator           string          `json:"creator"`                               // 创建人
	Updater           string          `json:"updater"`                               // 更新人
	CreatedAt         int64           `json:"createdAt"`                             // 创建时间（时间戳毫秒）
	UpdatedAt         int64           `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
	Deleted           gorm.DeletedAt  `gorm:"index" json:"-"`                        // 软删除标记
}

func (AlertRule) TableName() string {
	return "alert_rules"
}

// HasQuietPeriod 是否配置了静默期
func (r *AlertRule) HasQuietPeriod() bool {
	return r.QuietPeriod > 0
}

// EffectiveConditions 返回参与评估的条件列表。
// 设备与任务状态类规则无需手工配置，按规则类型合成内置条件。
func (r *AlertRule) EffectiveConditions() []RuleCondition {
	if r.RuleType.NeedConditionConfig() {
		return r.Conditions
	}
	one := 1.0
	zero := 0.0
	switch r.RuleType {
	case RuleTypeOffline:
		return []RuleCondition{{Metric: MetricDeviceOnline, Operator: OperatorEQ, Threshold: &zero}}
	case RuleTypeFault:
		return []RuleCondition{{Metric: MetricDeviceFault, Operator: OperatorEQ, Threshold: &one}}
	case RuleTypeTimeout:
		return []RuleCondition{{Metric: MetricTaskTimeout, Operator: OperatorEQ, Threshold: &one}}
	default:
		return nil
	}
}

// MetricNames 规则涉及的指标名称（去重）
func (r *AlertRule) MetricNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, c := range r.EffectiveConditions() {
		if _, ok := seen[c.Metric]; ok {
			continue
		}
		seen[c.Metric] = struct{}{}
		names = append(names, c.Metric)
	}
	return names
}

// ValidateConditions 校验条件配置是否合法
func (r *AlertRule) ValidateConditions() bool {
	if !r.RuleType.NeedConditionConfig() {
		return true
	}
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !c.IsValid() {
			return false
		}
	}
	return true
}

// NotifyTypeList 通知方式列表，未配置时默认短信
func (r *AlertRule) NotifyTypeList() []NotifyType {
	var types []NotifyType
	for _, s := range strings.Split(r.NotifyTypes, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		types = append(types, NotifyType(s))
	}
	if len(types) == 0 {
		types = append(types, NotifySms)
	}
	return types
}

// NotifyUserIDs 通知用户ID列表
func (r *AlertRule) NotifyUserIDs() []int64 {
	return parseIDList(r.NotifyUsers)
}

// NotifyDepartmentIDs 通知部门ID列表
func (r *AlertRule) NotifyDepartmentIDs() []int64 {
	return parseIDList(r.NotifyDepartments)
}

func parseIDList(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// EncodeConditions 序列化条件配置用于入库
func (r *AlertRule) EncodeConditions() {
	if len(r.Conditions) > 0 {
		data, _ := json.Marshal(r.Conditions)
		r.ConditionsStr = string(data)
	} else {
		r.ConditionsStr = ""
	}
}

// DecodeConditions 反序列化条件配置
func (r *AlertRule) DecodeConditions() {
	if r.ConditionsStr != "" {
		_ = json.Unmarshal([]byte(r.ConditionsStr), &r.Conditions)
	}
}
