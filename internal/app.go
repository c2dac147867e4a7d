package internal

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"aquawatch/internal/config"
	"aquawatch/internal/metrics"
	"aquawatch/internal/models"

	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Run 启动服务
func Run(configPath string) error {
	return orz.Quick(configPath, func(app *orz.App) error {
		logger := app.Logger()
		db := app.GetDatabase()

		var appConfig config.AppConfig
		if _config := app.GetConfig(); _config != nil {
			if err := _config.App.Unmarshal(&appConfig); err != nil {
				return fmt.Errorf("读取配置失败: %w", err)
			}
		}
		appConfig.Normalize()

		if err := autoMigrate(db); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}

		metrics.Init()

		components, err := InitializeApp(logger, db, &appConfig)
		if err != nil {
			return fmt.Errorf("初始化应用失败: %w", err)
		}

		ctx := context.Background()
		go components.WSManager.Run(ctx)
		go components.Dispatcher.Run(ctx)

		if err := startCron(ctx, logger, &appConfig, components); err != nil {
			return fmt.Errorf("注册定时任务失败: %w", err)
		}

		e := echo.New()
		e.HideBanner = true
		e.Validator = &echoValidator{validate: validator.New()}
		registerRoutes(e, components)

		logger.Info("HTTP 服务启动", zap.String("addr", appConfig.Server.Addr))
		return e.Start(appConfig.Server.Addr)
	})
}

// autoMigrate 同步表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AlertRule{},
		&models.AlertRecord{},
		&models.AlertNotifyLog{},
		&models.Site{},
		&models.Device{},
		&models.FactorReading{},
		&models.SiteJobInstance{},
		&models.User{},
		&models.Department{},
		&models.UserDepartment{},
	)
}

// startCron 注册评估、恢复与重发三个周期任务。
// 每个任务用CAS标记防止重入，上一轮未结束时跳过本轮。
func startCron(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig, components *AppComponents) error {
	c := cron.New()

	var evaluating atomic.Bool
	if _, err := c.AddFunc(cfg.Alert.EvaluateCron, func() {
		if !evaluating.CompareAndSwap(false, true) {
			logger.Warn("上一轮告警评估尚未结束，跳过本轮")
			return
		}
		defer evaluating.Store(false)

		runCtx, cancel := context.WithTimeout(ctx, 4*time.Minute)
		defer cancel()
		if err := components.JobService.RefreshExpirations(runCtx); err != nil {
			logger.Error("刷新任务到期状态失败", zap.Error(err))
		}
		if err := components.EngineService.ScanAndEvaluate(runCtx); err != nil {
			logger.Error("告警评估扫描失败", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	var recovering atomic.Bool
	if _, err := c.AddFunc(cfg.Alert.RecoverCron, func() {
		if !recovering.CompareAndSwap(false, true) {
			logger.Warn("上一轮恢复检查尚未结束，跳过本轮")
			return
		}
		defer recovering.Store(false)

		runCtx, cancel := context.WithTimeout(ctx, 4*time.Minute)
		defer cancel()
		if err := components.EngineService.CheckAndRecover(runCtx); err != nil {
			logger.Error("告警恢复检查失败", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	var retrying atomic.Bool
	if _, err := c.AddFunc(cfg.Alert.RetryCron, func() {
		if !retrying.CompareAndSwap(false, true) {
			logger.Warn("上一轮通知重发尚未结束，跳过本轮")
			return
		}
		defer retrying.Store(false)

		runCtx, cancel := context.WithTimeout(ctx, 4*time.Minute)
		defer cancel()
		if err := components.Dispatcher.RetryFailedSweep(runCtx); err != nil {
			logger.Error("失败通知重发失败", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.Start()
	logger.Info("定时任务已注册",
		zap.String("evaluateCron", cfg.Alert.EvaluateCron),
		zap.String("recoverCron", cfg.Alert.RecoverCron),
		zap.String("retryCron", cfg.Alert.RetryCron))
	return nil
}

// registerRoutes 注册路由
func registerRoutes(e *echo.Echo, components *AppComponents) {
	api := e.Group("/api")

	rules := api.Group("/alert-rules")
	rules.POST("", components.AlertHandler.CreateRule)
	rules.GET("", components.AlertHandler.PageRules)
	rules.GET("/:id", components.AlertHandler.GetRule)
	rules.PUT("/:id", components.AlertHandler.UpdateRule)
	rules.DELETE("/:id", components.AlertHandler.DeleteRule)
	rules.POST("/:id/enable", components.AlertHandler.EnableRule)
	rules.POST("/:id/disable", components.AlertHandler.DisableRule)

	records := api.Group("/alert-records")
	records.GET("", components.AlertHandler.PageRecords)
	records.GET("/:id", components.AlertHandler.GetRecord)
	records.POST("/:id/process", components.AlertHandler.StartProcess)
	records.POST("/:id/resolve", components.AlertHandler.Resolve)
	records.POST("/:id/ignore", components.AlertHandler.Ignore)
	records.POST("/:id/remark", components.AlertHandler.UpdateRemark)
	records.GET("/:id/notify-logs", components.AlertHandler.ListNotifyLogs)

	api.POST("/notify-logs/:id/retry", components.AlertHandler.RetryNotifyLog)

	sites := api.Group("/sites")
	sites.GET("", components.MonitoringHandler.ListSites)
	sites.GET("/:id/devices", components.MonitoringHandler.ListSiteDevices)
	sites.GET("/:id/readings", components.MonitoringHandler.ListSiteReadings)

	api.POST("/factor-readings", components.MonitoringHandler.IngestReading)
	api.PUT("/devices/:id/status", components.MonitoringHandler.UpdateDeviceStatus)

	api.GET("/alerts/stream", components.WSManager.ServeStream)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// echoValidator echo的参数校验适配
type echoValidator struct {
	validate *validator.Validate
}

func (v *echoValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
