package collector

import (
	"context"

	"aquawatch/internal/models"

	"go.uber.org/zap"
)

// SiteStore 站点与监测因子读数的数据来源
type SiteStore interface {
	FindSites(ctx context.Context) ([]models.Site, error)
	FindDevices(ctx context.Context) ([]models.Device, error)
	FindReadingsByMetric(ctx context.Context, metric string) ([]models.FactorReading, error)
}

// FactorCollector 监测因子采集器。
// 从各站点的最新读数中取值，指标名称即因子名称（pH值、化学需氧量等）。
type FactorCollector struct {
	logger *zap.Logger
	sites  SiteStore
}

func NewFactorCollector(logger *zap.Logger, sites SiteStore) *FactorCollector {
	return &FactorCollector{
		logger: logger,
		sites:  sites,
	}
}

func (c *FactorCollector) Name() string {
	return "factor"
}

// Supports 内置的设备/任务状态指标之外的指标都按监测因子处理
func (c *FactorCollector) Supports(metric string) bool {
	return !models.IsBuiltinMetric(metric)
}

func (c *FactorCollector) CollectAll(ctx context.Context, metric string) ([]models.Metric, error) {
	readings, err := c.sites.FindReadingsByMetric(ctx, metric)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}

	siteNames, err := c.siteNames(ctx)
	if err != nil {
		return nil, err
	}

	metrics := make([]models.Metric, 0, len(readings))
	for _, reading := range readings {
		value := reading.Value
		metrics = append(metrics, models.Metric{
			Name:        metric,
			TargetType:  models.TargetTypeSite,
			TargetID:    reading.SiteID,
			TargetName:  siteNames[reading.SiteID],
			Value:       &value,
			CollectedAt: reading.CollectedAt,
		})
	}
	return metrics, nil
}

func (c *FactorCollector) siteNames(ctx context.Context) (map[int64]string, error) {
	sites, err := c.sites.FindSites(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(sites))
	for _, site := range sites {
		names[site.ID] = site.SiteName
	}
	return names, nil
}
