package handler

import (
	"strconv"

	"aquawatch/internal/models"
	"aquawatch/internal/service"

	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AlertHandler struct {
	logger       *zap.Logger
	ruleService  *service.RuleService
	alertService *service.AlertService
	dispatcher   *service.Dispatcher
}

func NewAlertHandler(logger *zap.Logger, ruleService *service.RuleService,
	alertService *service.AlertService, dispatcher *service.Dispatcher) *AlertHandler {
	return &AlertHandler{
		logger:       logger,
		ruleService:  ruleService,
		alertService: alertService,
		dispatcher:   dispatcher,
	}
}

// CreateRule 创建告警规则
func (h *AlertHandler) CreateRule(c echo.Context) error {
	var rule models.AlertRule
	if err := c.Bind(&rule); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}

	if err := h.ruleService.CreateRule(c.Request().Context(), &rule); err != nil {
		h.logger.Error("创建告警规则失败", zap.Error(err))
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, rule)
}

// UpdateRule 更新告警规则
func (h *AlertHandler) UpdateRule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var rule models.AlertRule
	if err := c.Bind(&rule); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}
	rule.ID = id

	if err := h.ruleService.UpdateRule(c.Request().Context(), &rule); err != nil {
		h.logger.Error("更新告警规则失败", zap.Int64("ruleId", id), zap.Error(err))
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, rule)
}

// DeleteRule 删除告警规则
func (h *AlertHandler) DeleteRule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.ruleService.DeleteRule(c.Request().Context(), id); err != nil {
		h.logger.Error("删除告警规则失败", zap.Int64("ruleId", id), zap.Error(err))
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "删除成功",
	})
}

// GetRule 获取告警规则
func (h *AlertHandler) GetRule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	rule, err := h.ruleService.GetRule(c.Request().Context(), id)
	if err != nil {
		return orz.NewError(404, "告警规则不存在")
	}
	return orz.Ok(c, rule)
}

// PageRules 分页查询告警规则
func (h *AlertHandler) PageRules(c echo.Context) error {
	keyword := c.QueryParam("keyword")
	limit, offset := parsePaging(c)

	rules, total, err := h.ruleService.PageRules(c.Request().Context(), keyword, limit, offset)
	if err != nil {
		h.logger.Error("查询告警规则失败", zap.Error(err))
		return orz.NewError(500, "查询告警规则失败")
	}
	return orz.Ok(c, orz.Map{
		"items": rules,
		"total": total,
	})
}

// EnableRule 启用告警规则
func (h *AlertHandler) EnableRule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.ruleService.EnableRule(c.Request().Context(), id); err != nil {
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "已启用",
	})
}

// DisableRule 禁用告警规则
func (h *AlertHandler) DisableRule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.ruleService.DisableRule(c.Request().Context(), id); err != nil {
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "已禁用",
	})
}

// PageRecords 分页查询告警记录
func (h *AlertHandler) PageRecords(c echo.Context) error {
	status := models.AlertStatus(c.QueryParam("status"))
	var level models.AlertLevel
	if l := c.QueryParam("level"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			level = models.AlertLevel(parsed)
		}
	}
	keyword := c.QueryParam("keyword")
	limit, offset := parsePaging(c)

	records, total, err := h.alertService.PageRecords(c.Request().Context(), status, level, keyword, limit, offset)
	if err != nil {
		h.logger.Error("查询告警记录失败", zap.Error(err))
		return orz.NewError(500, "查询告警记录失败")
	}
	return orz.Ok(c, orz.Map{
		"items": records,
		"total": total,
	})
}

// GetRecord 获取告警记录
func (h *AlertHandler) GetRecord(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	record, err := h.alertService.GetRecord(c.Request().Context(), id)
	if err != nil {
		return orz.NewError(404, "告警记录不存在")
	}
	return orz.Ok(c, record)
}

// HandleRequest 告警处理请求
type HandleRequest struct {
	Handler string `json:"handler" validate:"required"`
	Remark  string `json:"remark"`
}

// StartProcess 开始处理告警
func (h *AlertHandler) StartProcess(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req HandleRequest
	if err := c.Bind(&req); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.alertService.StartProcess(c.Request().Context(), id, req.Handler); err != nil {
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "已开始处理",
	})
}

// Resolve 标记告警为已解决
func (h *AlertHandler) Resolve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req HandleRequest
	if err := c.Bind(&req); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.alertService.Resolve(c.Request().Context(), id, req.Handler, req.Remark); err != nil {
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "已解决",
	})
}

// Ignore 忽略告警
func (h *AlertHandler) Ignore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req HandleRequest
	if err := c.Bind(&req); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.alertService.Ignore(c.Request().Context(), id, req.Handler, req.Remark); err != nil {
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "已忽略",
	})
}

// RemarkRequest 备注请求
type RemarkRequest struct {
	Remark string `json:"remark" validate:"required"`
}

// UpdateRemark 更新告警备注
func (h *AlertHandler) UpdateRemark(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req RemarkRequest
	if err := c.Bind(&req); err != nil {
		return orz.NewError(400, "无效的请求参数")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.alertService.UpdateRemark(c.Request().Context(), id, req.Remark); err != nil {
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "备注已更新",
	})
}

// ListNotifyLogs 查询告警的通知记录
func (h *AlertHandler) ListNotifyLogs(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	logs, err := h.alertService.ListNotifyLogs(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("查询通知记录失败", zap.Int64("alertRecordId", id), zap.Error(err))
		return orz.NewError(500, "查询通知记录失败")
	}
	return orz.Ok(c, logs)
}

// RetryNotifyLog 重发失败的通知
func (h *AlertHandler) RetryNotifyLog(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.dispatcher.RetryNotifyLog(c.Request().Context(), id); err != nil {
		h.logger.Error("重发通知失败", zap.Int64("notifyLogId", id), zap.Error(err))
		return orz.NewError(400, err.Error())
	}
	return orz.Ok(c, orz.Map{
		"message": "通知已重发",
	})
}

// parseID 解析路径中的数字ID
func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, orz.NewError(400, "无效的ID")
	}
	return id, nil
}

// parsePaging 解析分页参数
func parsePaging(c echo.Context) (limit int, offset int) {
	limit = 20
	offset = 0
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
