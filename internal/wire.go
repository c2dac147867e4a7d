//go:build wireinject
// +build wireinject

package internal

import (
	"aquawatch/internal/config"
	"aquawatch/internal/handler"
	"aquawatch/internal/repo"
	"aquawatch/internal/service"
	"aquawatch/internal/websocket"

	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, cfg *config.AppConfig) (*AppComponents, error) {
	wire.Build(
		// Repositories
		repo.NewAlertRuleRepo,
		repo.NewAlertRecordRepo,
		repo.NewAlertNotifyLogRepo,
		repo.NewSiteRepo,
		repo.NewJobRepo,
		repo.NewUserRepo,

		// Collectors
		provideCollectorRegistry,

		// Services
		service.NewRuleService,
		service.NewAlertService,
		provideJobService,
		provideSenderRegistry,
		provideDispatcher,
		provideAlertNotifier,
		provideEngineService,

		// WebSocket Manager
		websocket.NewManager,

		// Handlers
		handler.NewAlertHandler,
		handler.NewMonitoringHandler,

		// App Components
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
