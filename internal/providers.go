package internal

import (
	"encoding/json"

	"aquawatch/internal/collector"
	"aquawatch/internal/config"
	"aquawatch/internal/handler"
	"aquawatch/internal/models"
	"aquawatch/internal/repo"
	"aquawatch/internal/service"
	"aquawatch/internal/websocket"

	"go.uber.org/zap"
)

// AppComponents 应用组件
type AppComponents struct {
	AlertHandler      *handler.AlertHandler
	MonitoringHandler *handler.MonitoringHandler
	RuleService       *service.RuleService
	AlertService      *service.AlertService
	JobService        *service.JobService
	EngineService     *service.EngineService
	Dispatcher        *service.Dispatcher
	WSManager         *websocket.Manager
}

// provideCollectorRegistry 提供指标采集器注册表
func provideCollectorRegistry(logger *zap.Logger, siteRepo *repo.SiteRepo, jobRepo *repo.JobRepo) *collector.Registry {
	return collector.NewRegistry(
		collector.NewDeviceCollector(logger, siteRepo),
		collector.NewTaskCollector(logger, jobRepo),
		collector.NewFactorCollector(logger, siteRepo),
	)
}

// provideJobService 提供JobService
func provideJobService(logger *zap.Logger, jobRepo *repo.JobRepo, siteRepo *repo.SiteRepo, cfg *config.AppConfig) *service.JobService {
	return service.NewJobService(logger, jobRepo, siteRepo, cfg.Alert.TaskDeadlineHours, cfg.Alert.TaskExpiringHours)
}

// provideSenderRegistry 提供通知发送器注册表
func provideSenderRegistry(logger *zap.Logger, cfg *config.AppConfig) *service.SenderRegistry {
	return service.NewSenderRegistry(
		service.NewSmsSender(logger, cfg.Notify.SmsGatewayURL),
		service.NewEmailSender(logger, cfg.Notify.SMTP),
		service.NewPushSender(logger, cfg.Notify.PushGatewayURL),
		service.NewWechatSender(logger, cfg.Notify.WechatWebhookURL),
	)
}

// provideDispatcher 提供告警通知派发器
func provideDispatcher(logger *zap.Logger, ruleRepo *repo.AlertRuleRepo, recordRepo *repo.AlertRecordRepo,
	logRepo *repo.AlertNotifyLogRepo, alertService *service.AlertService,
	senders *service.SenderRegistry, cfg *config.AppConfig) *service.Dispatcher {
	return service.NewDispatcher(
		logger,
		ruleRepo,
		recordRepo,
		logRepo,
		alertService,
		senders,
		service.SystemClock(),
		cfg.Alert.DispatchWorkers,
		cfg.Alert.SendConcurrency,
	)
}

// provideEngineService 提供告警评估引擎
func provideEngineService(logger *zap.Logger, ruleRepo *repo.AlertRuleRepo, recordRepo *repo.AlertRecordRepo,
	registry *collector.Registry, jobService *service.JobService, notifier service.AlertNotifier) *service.EngineService {
	return service.NewEngineService(logger, ruleRepo, recordRepo, registry, jobService, notifier, service.SystemClock())
}

// provideAlertNotifier 提供告警事件出口：派发通知并广播给前端
func provideAlertNotifier(dispatcher *service.Dispatcher, ws *websocket.Manager) service.AlertNotifier {
	return &alertEventFanout{
		dispatcher: dispatcher,
		ws:         ws,
	}
}

// alertEventFanout 把告警事件同时交给通知派发器与websocket广播
type alertEventFanout struct {
	dispatcher *service.Dispatcher
	ws         *websocket.Manager
}

func (f *alertEventFanout) NotifyCreated(record *models.AlertRecord) {
	f.dispatcher.NotifyCreated(record)
	f.broadcast(service.AlertEvent{Type: service.EventAlertCreated, Record: record})
}

func (f *alertEventFanout) NotifyRecovered(record *models.AlertRecord) {
	f.dispatcher.NotifyRecovered(record)
	f.broadcast(service.AlertEvent{Type: service.EventAlertRecovered, Record: record})
}

func (f *alertEventFanout) broadcast(event service.AlertEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	f.ws.Broadcast(data)
}
