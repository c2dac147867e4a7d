package collector

import (
	"context"
	"sync"

	"aquawatch/internal/models"
)

// MetricCollector 指标采集器。
// 每个采集器负责一类指标，按指标名称返回全部目标对象的当前值。
type MetricCollector interface {
	// Name 采集器名称
	Name() string
	// Supports 是否支持该指标
	Supports(metric string) bool
	// CollectAll 采集该指标在所有目标对象上的当前值。
	// 不支持或暂无数据时返回空切片。
	CollectAll(ctx context.Context, metric string) ([]models.Metric, error)
}

// Registry 采集器注册表，按指标名称路由到采集器
type Registry struct {
	mu         sync.RWMutex
	collectors []MetricCollector
	cache      map[string]MetricCollector
}

func NewRegistry(collectors ...MetricCollector) *Registry {
	return &Registry{
		collectors: collectors,
		cache:      make(map[string]MetricCollector),
	}
}

// Register 注册采集器
func (r *Registry) Register(c MetricCollector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors = append(r.collectors, c)
	r.cache = make(map[string]MetricCollector)
}

// Lookup 查找支持该指标的采集器
func (r *Registry) Lookup(metric string) (MetricCollector, bool) {
	r.mu.RLock()
	if c, ok := r.cache[metric]; ok {
		r.mu.RUnlock()
		return c, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.collectors {
		if c.Supports(metric) {
			r.cache[metric] = c
			return c, true
		}
	}
	return nil, false
}
