package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aquawatch/internal/metrics"
	"aquawatch/internal/models"

	"go.uber.org/zap"
)

// AlertEventType 告警事件类型
type AlertEventType string

const (
	EventAlertCreated   AlertEventType = "ALERT_CREATED"   // 告警触发
	EventAlertRecovered AlertEventType = "ALERT_RECOVERED" // 告警恢复
)

// AlertEvent 告警事件
type AlertEvent struct {
	Type   AlertEventType      `json:"type"`
	Record *models.AlertRecord `json:"record"`
}

// NotifyLogStore 通知记录存储
type NotifyLogStore interface {
	BatchCreate(ctx context.Context, logs []*models.AlertNotifyLog) error
	UpdateLog(ctx context.Context, log *models.AlertNotifyLog) error
	GetLog(ctx context.Context, id int64) (*models.AlertNotifyLog, error)
	FindByAlertAndScene(ctx context.Context, alertRecordID int64, scene models.NotifyScene) ([]models.AlertNotifyLog, error)
	FindSuccessByAlertAndScene(ctx context.Context, alertRecordID int64, scene models.NotifyScene) ([]models.AlertNotifyLog, error)
	FindFailedRetryable(ctx context.Context, limit int) ([]models.AlertNotifyLog, error)
}

// RecordStatusStore 告警记录的通知状态回写
type RecordStatusStore interface {
	GetRecord(ctx context.Context, id int64) (*models.AlertRecord, error)
	UpdateRecord(ctx context.Context, record *models.AlertRecord) error
}

// RecipientDirectory 告警接收人解析
type RecipientDirectory interface {
	AlertRecipients(ctx context.Context, rule *models.AlertRule, record *models.AlertRecord) ([]models.User, error)
}

// Dispatcher 告警通知派发器。
// 消费告警事件，解析接收人并按通知方式扇出发送，逐条记录发送结果。
type Dispatcher struct {
	logger          *zap.Logger
	rules           RuleSource
	records         RecordStatusStore
	logs            NotifyLogStore
	recipients      RecipientDirectory
	senders         *SenderRegistry
	clock           Clock
	events          chan AlertEvent
	workers         int
	sendConcurrency int
}

func NewDispatcher(logger *zap.Logger, rules RuleSource, records RecordStatusStore,
	logs NotifyLogStore, recipients RecipientDirectory, senders *SenderRegistry,
	clock Clock, workers int, sendConcurrency int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if sendConcurrency <= 0 {
		sendConcurrency = 4
	}
	return &Dispatcher{
		logger:          logger,
		rules:           rules,
		records:         records,
		logs:            logs,
		recipients:      recipients,
		senders:         senders,
		clock:           clock,
		events:          make(chan AlertEvent, 256),
		workers:         workers,
		sendConcurrency: sendConcurrency,
	}
}

// NotifyCreated 投递告警触发事件
func (d *Dispatcher) NotifyCreated(record *models.AlertRecord) {
	d.enqueue(AlertEvent{Type: EventAlertCreated, Record: record})
}

// NotifyRecovered 投递告警恢复事件
func (d *Dispatcher) NotifyRecovered(record *models.AlertRecord) {
	d.enqueue(AlertEvent{Type: EventAlertRecovered, Record: record})
}

// enqueue 非阻塞投递，队列满时丢弃事件
func (d *Dispatcher) enqueue(event AlertEvent) {
	select {
	case d.events <- event:
	default:
		metrics.EventsDropped.Inc()
		d.logger.Warn("告警事件队列已满，丢弃事件",
			zap.String("type", string(event.Type)),
			zap.String("alertCode", event.Record.AlertCode))
	}
}

// Run 启动派发工作协程，阻塞直到ctx取消
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event := <-d.events:
					d.handle(ctx, event)
				}
			}
		}()
	}
	wg.Wait()
	d.logger.Info("告警通知派发器已停止")
}

func (d *Dispatcher) handle(ctx context.Context, event AlertEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("处理告警事件时发生panic",
				zap.String("type", string(event.Type)),
				zap.Any("panic", r))
			d.markRecordNotify(ctx, event.Record, models.NotifyStatusFailed)
		}
	}()

	switch event.Type {
	case EventAlertCreated:
		d.dispatchCreated(ctx, event.Record)
	case EventAlertRecovered:
		d.dispatchRecovered(ctx, event.Record)
	default:
		d.logger.Warn("未知的告警事件类型", zap.String("type", string(event.Type)))
	}
}

// dispatchCreated 派发告警触发通知
func (d *Dispatcher) dispatchCreated(ctx context.Context, record *models.AlertRecord) {
	rule, err := d.rules.GetRule(ctx, record.RuleID)
	if err != nil {
		d.logger.Error("查询告警规则失败，无法派发通知",
			zap.String("alertCode", record.AlertCode),
			zap.Int64("ruleId", record.RuleID),
			zap.Error(err))
		d.markRecordNotify(ctx, record, models.NotifyStatusFailed)
		return
	}

	users, err := d.recipients.AlertRecipients(ctx, rule, record)
	if err != nil {
		d.logger.Error("解析告警接收人失败",
			zap.String("alertCode", record.AlertCode),
			zap.Error(err))
		d.markRecordNotify(ctx, record, models.NotifyStatusFailed)
		return
	}

	now := d.clock.Now().UnixMilli()
	logs := d.buildLogs(record, rule.NotifyTypeList(), users, models.SceneCreate, now)
	if len(logs) == 0 {
		d.logger.Warn("没有可用的通知接收人",
			zap.String("alertCode", record.AlertCode),
			zap.String("ruleName", record.RuleName))
		d.markRecordNotify(ctx, record, models.NotifyStatusFailed)
		return
	}

	if err := d.logs.BatchCreate(ctx, logs); err != nil {
		d.logger.Error("创建通知记录失败",
			zap.String("alertCode", record.AlertCode),
			zap.Error(err))
		d.markRecordNotify(ctx, record, models.NotifyStatusFailed)
		return
	}

	d.sendBatch(ctx, logs, "水质监测告警", record.AlertMessage)
	d.aggregate(ctx, record, logs)
}

// dispatchRecovered 派发告警恢复通知。
// 只通知触发时成功送达的接收人。
func (d *Dispatcher) dispatchRecovered(ctx context.Context, record *models.AlertRecord) {
	succeeded, err := d.logs.FindSuccessByAlertAndScene(ctx, record.ID, models.SceneCreate)
	if err != nil {
		d.logger.Error("查询触发通知记录失败",
			zap.String("alertCode", record.AlertCode),
			zap.Error(err))
		return
	}
	if len(succeeded) == 0 {
		d.logger.Debug("没有需要发送恢复通知的接收人",
			zap.String("alertCode", record.AlertCode))
		return
	}

	now := d.clock.Now().UnixMilli()
	logs := make([]*models.AlertNotifyLog, 0, len(succeeded))
	for _, prev := range succeeded {
		logs = append(logs, &models.AlertNotifyLog{
			AlertRecordID: record.ID,
			UserID:        prev.UserID,
			UserName:      prev.UserName,
			NotifyType:    prev.NotifyType,
			NotifyTarget:  prev.NotifyTarget,
			Scene:         models.SceneRecover,
			Status:        models.NotifyStatusPending,
			CreatedAt:     now,
		})
	}

	if err := d.logs.BatchCreate(ctx, logs); err != nil {
		d.logger.Error("创建恢复通知记录失败",
			zap.String("alertCode", record.AlertCode),
			zap.Error(err))
		return
	}

	d.sendBatch(ctx, logs, "告警恢复通知", d.recoveryMessage(record))
	d.aggregate(ctx, record, logs)
}

func (d *Dispatcher) recoveryMessage(record *models.AlertRecord) string {
	recoveredAt := time.UnixMilli(record.ClosedAt).Format("2006-01-02 15:04:05")
	return fmt.Sprintf("【告警恢复】%s (恢复时间: %s, 持续: %d分钟)",
		record.AlertMessage, recoveredAt, record.Duration)
}

// buildLogs 按 接收人 x 通知方式 展开待发送的通知记录。
// 缺少对应通知地址的组合跳过。
func (d *Dispatcher) buildLogs(record *models.AlertRecord, types []models.NotifyType,
	users []models.User, scene models.NotifyScene, now int64) []*models.AlertNotifyLog {
	var logs []*models.AlertNotifyLog
	for i := range users {
		user := users[i]
		for _, notifyType := range types {
			target := user.NotifyTargetByType(notifyType)
			if target == "" {
				d.logger.Warn("用户缺少通知地址，跳过",
					zap.Int64("userId", user.ID),
					zap.String("userName", user.DisplayName()),
					zap.String("notifyType", string(notifyType)))
				continue
			}
			logs = append(logs, &models.AlertNotifyLog{
				AlertRecordID: record.ID,
				UserID:        user.ID,
				UserName:      user.DisplayName(),
				NotifyType:    notifyType,
				NotifyTarget:  target,
				Scene:         scene,
				Status:        models.NotifyStatusPending,
				CreatedAt:     now,
			})
		}
	}
	return logs
}

// sendBatch 并发发送一批通知，发送结束后才返回
func (d *Dispatcher) sendBatch(ctx context.Context, logs []*models.AlertNotifyLog, subject string, message string) {
	sem := make(chan struct{}, d.sendConcurrency)
	var wg sync.WaitGroup
	for i := range logs {
		log := logs[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			_ = d.sendOne(ctx, log, subject, message)
		}()
	}
	wg.Wait()
}

// sendOne 发送单条通知并记录结果
func (d *Dispatcher) sendOne(ctx context.Context, log *models.AlertNotifyLog, subject string, message string) error {
	now := d.clock.Now().UnixMilli()

	sender, ok := d.senders.Get(log.NotifyType)
	if !ok {
		log.MarkFailed(fmt.Sprintf("不支持的通知方式: %s", log.NotifyType), now)
	} else if err := sender.Send(ctx, log.NotifyTarget, subject, message); err != nil {
		log.MarkFailed(err.Error(), now)
		metrics.Notifications.WithLabelValues(string(log.NotifyType), "failed").Inc()
		d.logger.Error("发送通知失败",
			zap.Int64("alertRecordId", log.AlertRecordID),
			zap.String("notifyType", string(log.NotifyType)),
			zap.String("userName", log.UserName),
			zap.Error(err))
	} else {
		log.MarkSuccess(now)
		metrics.Notifications.WithLabelValues(string(log.NotifyType), "success").Inc()
	}

	if err := d.logs.UpdateLog(ctx, log); err != nil {
		d.logger.Error("更新通知记录失败",
			zap.Int64("notifyLogId", log.ID),
			zap.Error(err))
	}
	if log.Status == models.NotifyStatusFailed {
		return fmt.Errorf("通知发送失败: %s", log.FailReason)
	}
	return nil
}

// aggregate 汇总一次派发的结果并回写告警记录的通知状态。
// 全部成功为SUCCESS，存在失败为FAILED。
func (d *Dispatcher) aggregate(ctx context.Context, record *models.AlertRecord, logs []*models.AlertNotifyLog) {
	anyFailed := false
	allSuccess := len(logs) > 0
	for _, log := range logs {
		if log.Status == models.NotifyStatusFailed {
			anyFailed = true
		}
		if log.Status != models.NotifyStatusSuccess {
			allSuccess = false
		}
	}

	switch {
	case anyFailed:
		d.markRecordNotify(ctx, record, models.NotifyStatusFailed)
	case allSuccess:
		d.markRecordNotify(ctx, record, models.NotifyStatusSuccess)
	}
}

func (d *Dispatcher) markRecordNotify(ctx context.Context, record *models.AlertRecord, status models.NotifyStatus) {
	now := d.clock.Now().UnixMilli()
	if status == models.NotifyStatusSuccess {
		record.MarkNotifySuccess(now)
	} else {
		record.MarkNotifyFailed(now)
	}
	if err := d.records.UpdateRecord(ctx, record); err != nil {
		d.logger.Error("更新告警通知状态失败",
			zap.String("alertCode", record.AlertCode),
			zap.Error(err))
	}
}

// RetryNotifyLog 手工重发一条失败的通知
func (d *Dispatcher) RetryNotifyLog(ctx context.Context, logID int64) error {
	log, err := d.logs.GetLog(ctx, logID)
	if err != nil {
		return err
	}
	if err := log.ResetToPending(); err != nil {
		return err
	}
	if err := d.logs.UpdateLog(ctx, log); err != nil {
		return err
	}
	return d.resend(ctx, log)
}

// RetryFailedSweep 定时重发可重试的失败通知
func (d *Dispatcher) RetryFailedSweep(ctx context.Context) error {
	logs, err := d.logs.FindFailedRetryable(ctx, 100)
	if err != nil {
		return fmt.Errorf("查询可重试的通知记录失败: %w", err)
	}
	for i := range logs {
		log := logs[i]
		if err := log.ResetToPending(); err != nil {
			continue
		}
		if err := d.logs.UpdateLog(ctx, &log); err != nil {
			d.logger.Error("更新通知记录失败", zap.Int64("notifyLogId", log.ID), zap.Error(err))
			continue
		}
		if err := d.resend(ctx, &log); err != nil {
			d.logger.Warn("重发通知失败",
				zap.Int64("notifyLogId", log.ID),
				zap.Int("retryCount", log.RetryCount),
				zap.Error(err))
		}
	}
	return nil
}

// resend 重新发送单条通知，成功后重新汇总该场景的通知状态
func (d *Dispatcher) resend(ctx context.Context, log *models.AlertNotifyLog) error {
	record, err := d.records.GetRecord(ctx, log.AlertRecordID)
	if err != nil {
		return err
	}

	subject := "水质监测告警"
	message := record.AlertMessage
	if log.Scene == models.SceneRecover {
		subject = "告警恢复通知"
		message = d.recoveryMessage(record)
	}

	sendErr := d.sendOne(ctx, log, subject, message)

	// 重发成功可能使该场景的通知整体转为成功
	if log.Status == models.NotifyStatusSuccess {
		all, err := d.logs.FindByAlertAndScene(ctx, record.ID, log.Scene)
		if err == nil {
			allSuccess := len(all) > 0
			for _, l := range all {
				if l.Status != models.NotifyStatusSuccess {
					allSuccess = false
					break
				}
			}
			if allSuccess {
				d.markRecordNotify(ctx, record, models.NotifyStatusSuccess)
			}
		}
	}
	return sendErr
}
