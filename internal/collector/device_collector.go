package collector

import (
	"context"
	"time"

	"aquawatch/internal/models"

	"go.uber.org/zap"
)

// DeviceCollector 设备状态采集器。
// 设备在线: 在线为1离线为0; 设备故障: 故障为1正常为0。
type DeviceCollector struct {
	logger *zap.Logger
	sites  SiteStore
}

func NewDeviceCollector(logger *zap.Logger, sites SiteStore) *DeviceCollector {
	return &DeviceCollector{
		logger: logger,
		sites:  sites,
	}
}

func (c *DeviceCollector) Name() string {
	return "device"
}

func (c *DeviceCollector) Supports(metric string) bool {
	return metric == models.MetricDeviceOnline || metric == models.MetricDeviceFault
}

func (c *DeviceCollector) CollectAll(ctx context.Context, metric string) ([]models.Metric, error) {
	if !c.Supports(metric) {
		return nil, nil
	}
	devices, err := c.sites.FindDevices(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	metrics := make([]models.Metric, 0, len(devices))
	for i := range devices {
		device := devices[i]
		var value float64
		switch metric {
		case models.MetricDeviceOnline:
			if device.IsOnline() {
				value = 1
			}
		case models.MetricDeviceFault:
			if device.IsFault() {
				value = 1
			}
		}
		v := value
		metrics = append(metrics, models.Metric{
			Name:        metric,
			TargetType:  models.TargetTypeDevice,
			TargetID:    device.ID,
			TargetName:  device.DeviceName,
			Value:       &v,
			CollectedAt: now,
		})
	}
	return metrics, nil
}
