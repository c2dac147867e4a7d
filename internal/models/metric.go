package models

// Metric 一条采集到的指标数据（内存对象，不落库）
type Metric struct {
	Name        string   `json:"name"`        // 指标名称
	TargetType  string   `json:"targetType"`  // 目标类型: site, device, task
	TargetID    int64    `json:"targetId"`    // 目标ID
	TargetName  string   `json:"targetName"`  // 目标名称
	Value       *float64 `json:"value"`       // 指标值，nil表示无有效数据
	CollectedAt int64    `json:"collectedAt"` // 采集时间（时间戳毫秒）
}

// IsBuiltinMetric 是否为设备/任务状态类内置指标
func IsBuiltinMetric(name string) bool {
	switch name {
	case MetricDeviceOnline, MetricDeviceFault, MetricTaskExpiring, MetricTaskTimeout:
		return true
	default:
		return false
	}
}
