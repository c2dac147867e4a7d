package repo

import (
	"context"
	"testing"

	"aquawatch/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.AlertRecord{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

func newRecord(code string, createdAt int64) *models.AlertRecord {
	return &models.AlertRecord{
		AlertCode:    code,
		RuleID:       1,
		RuleName:     "pH超标",
		TargetType:   models.TargetTypeSite,
		TargetID:     1,
		TargetName:   "一号站",
		Status:       models.AlertStatusPending,
		NotifyStatus: models.NotifyStatusPending,
		CreatedAt:    createdAt,
	}
}

func TestCreateIfNotSuppressed(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRecordRepo(newTestDB(t))
	minuteMs := int64(60 * 1000)

	// 没有历史告警时正常创建
	first := newRecord("a-1", 0)
	created, err := repo.CreateIfNotSuppressed(ctx, first, 30, 0)
	if err != nil {
		t.Fatalf("创建告警失败: %v", err)
	}
	if !created {
		t.Fatal("首次触发应创建告警")
	}

	// 同一（规则, 目标）存在未关闭告警时被抑制
	created, err = repo.CreateIfNotSuppressed(ctx, newRecord("a-2", 5*minuteMs), 30, 5*minuteMs)
	if err != nil {
		t.Fatalf("抑制检查失败: %v", err)
	}
	if created {
		t.Error("存在未关闭告警时不应重复创建")
	}

	// 关闭后静默期内仍被抑制
	if err := first.Resolve("张三", "已处理", 5*minuteMs); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateRecord(ctx, first); err != nil {
		t.Fatal(err)
	}
	created, err = repo.CreateIfNotSuppressed(ctx, newRecord("a-3", 10*minuteMs), 30, 10*minuteMs)
	if err != nil {
		t.Fatalf("抑制检查失败: %v", err)
	}
	if created {
		t.Error("静默期内不应再次创建")
	}

	// 静默期过后可以再次创建
	created, err = repo.CreateIfNotSuppressed(ctx, newRecord("a-4", 31*minuteMs), 30, 31*minuteMs)
	if err != nil {
		t.Fatalf("创建告警失败: %v", err)
	}
	if !created {
		t.Error("静默期过后应可以再次创建")
	}
}

func TestCreateIfNotSuppressedOtherTarget(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRecordRepo(newTestDB(t))

	if _, err := repo.CreateIfNotSuppressed(ctx, newRecord("a-1", 0), 30, 0); err != nil {
		t.Fatal(err)
	}

	// 其他目标不受抑制影响
	other := newRecord("a-2", 1000)
	other.TargetID = 2
	created, err := repo.CreateIfNotSuppressed(ctx, other, 30, 1000)
	if err != nil {
		t.Fatalf("创建告警失败: %v", err)
	}
	if !created {
		t.Error("不同目标的告警不应被抑制")
	}
}

func TestCreateIfNotSuppressedNoQuietPeriod(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRecordRepo(newTestDB(t))
	minuteMs := int64(60 * 1000)

	first := newRecord("a-1", 0)
	if _, err := repo.CreateIfNotSuppressed(ctx, first, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := first.Recover(1 * minuteMs); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateRecord(ctx, first); err != nil {
		t.Fatal(err)
	}

	// 未配置静默期时关闭后立即可再次创建
	created, err := repo.CreateIfNotSuppressed(ctx, newRecord("a-2", 2*minuteMs), 0, 2*minuteMs)
	if err != nil {
		t.Fatalf("创建告警失败: %v", err)
	}
	if !created {
		t.Error("未配置静默期时关闭后应可立即创建")
	}
}
