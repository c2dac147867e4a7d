package handler

import (
	"time"

	"aquawatch/internal/models"
	"aquawatch/internal/repo"

	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MonitoringHandler 站点、设备与监测数据接入
type MonitoringHandler struct {
	logger   *zap.Logger
	siteRepo *repo.SiteRepo
}

func NewMonitoringHandler(logger *zap.Logger, siteRepo *repo.SiteRepo) *MonitoringHandler {
	return &MonitoringHandler{
		logger:   logger,
		siteRepo: siteRepo,
	}
}

// ListSites 站点列表
func (h *MonitoringHandler) ListSites(c echo.Context) error {
	sites, err := h.siteRepo.FindSites(c.Request().Context())
	if err != nil {
		h.logger.Error("查询站点失败", zap.Error(err))
		return orz.NewError(500, "查询站点失败")
	}
	return orz.Ok(c, sites)
}

// ListSiteDevices 站点下的设备列表
func (h *MonitoringHandler) ListSiteDevices(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	devices, err := h.siteRepo.FindDevicesBySite(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("查询设备失败", zap.Int64("siteId", id), zap.Error(err))
		return orz.NewError(500, "查询设备失败")
	}
	return orz.Ok(c, devices)
}

// ListSiteReadings 站点监测因子的最新读数
func (h *MonitoringHandler) ListSiteReadings(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	readings, err := h.siteRepo.FindReadingsBySite(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("查询监测读数失败", zap.Int64("siteId", id), zap.Error(err))
		return orz.NewError(500, "查询监测读数失败")
	}
	return orz.Ok(c, readings)
}

// ReadingRequest 监测数据上报请求
type ReadingRequest struct {
	SiteID      int64   `json:"siteId" validate:"required"`
	Metric      string  `json:"metric" validate:"required"`
	Value       float64 `json:"value"`
	CollectedAt int64   `json:"collectedAt"`
}

// IngestReading 上报一条监测因子读数
func (h *MonitoringHandler) IngestReading(c echo.Context) error {
	var req ReadingRequest
	if err := c.Bind(&req); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.CollectedAt == 0 {
		req.CollectedAt = time.Now().UnixMilli()
	}

	reading := &models.FactorReading{
		SiteID:      req.SiteID,
		Metric:      req.Metric,
		Value:       req.Value,
		CollectedAt: req.CollectedAt,
		CreatedAt:   time.Now().UnixMilli(),
	}
	if err := h.siteRepo.SaveFactorReading(c.Request().Context(), reading); err != nil {
		h.logger.Error("保存监测读数失败",
			zap.Int64("siteId", req.SiteID),
			zap.String("metric", req.Metric),
			zap.Error(err))
		return orz.NewError(500, "保存监测读数失败")
	}
	return orz.Ok(c, orz.Map{
		"message": "上报成功",
	})
}

// DeviceStatusRequest 设备状态上报请求
type DeviceStatusRequest struct {
	Status models.DeviceStatus `json:"status"`
}

// UpdateDeviceStatus 上报设备状态
func (h *MonitoringHandler) UpdateDeviceStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req DeviceStatusRequest
	if err := c.Bind(&req); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}

	device, err := h.siteRepo.GetDevice(c.Request().Context(), id)
	if err != nil {
		return orz.NewError(404, "设备不存在")
	}

	device.Status = req.Status
	device.LastHeartbeatAt = time.Now().UnixMilli()
	if err := h.siteRepo.UpdateDevice(c.Request().Context(), device); err != nil {
		h.logger.Error("更新设备状态失败", zap.Int64("deviceId", id), zap.Error(err))
		return orz.NewError(500, "更新设备状态失败")
	}
	return orz.Ok(c, device)
}
