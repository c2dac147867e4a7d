package repo

import (
	"context"

	"aquawatch/internal/models"

	"github.com/go-orz/orz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SiteRepo struct {
	orz.Repository[models.Site, int64]
	db *gorm.DB
}

func NewSiteRepo(db *gorm.DB) *SiteRepo {
	return &SiteRepo{
		Repository: orz.NewRepository[models.Site, int64](db),
		db:         db,
	}
}

// FindSites 查找所有站点
func (r *SiteRepo) FindSites(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	err := r.db.WithContext(ctx).Find(&sites).Error
	return sites, err
}

// GetSite 获取站点
func (r *SiteRepo) GetSite(ctx context.Context, id int64) (*models.Site, error) {
	var site models.Site
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&site).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// FindDevices 查找所有设备
func (r *SiteRepo) FindDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.WithContext(ctx).Find(&devices).Error
	return devices, err
}

// FindDevicesBySite 查找站点下的设备
func (r *SiteRepo) FindDevicesBySite(ctx context.Context, siteID int64) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Find(&devices).Error
	return devices, err
}

// GetDevice 获取设备
func (r *SiteRepo) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// UpdateDevice 更新设备
func (r *SiteRepo) UpdateDevice(ctx context.Context, device *models.Device) error {
	return r.db.WithContext(ctx).Save(device).Error
}

// SaveFactorReading 保存监测因子最新读数（按站点+因子覆盖）
func (r *SiteRepo) SaveFactorReading(ctx context.Context, reading *models.FactorReading) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site_id"}, {Name: "metric"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "collected_at", "updated_at"}),
		}).
		Create(reading).Error
}

// FindReadingsByMetric 查找所有站点某个因子的最新读数
func (r *SiteRepo) FindReadingsByMetric(ctx context.Context, metric string) ([]models.FactorReading, error) {
	var readings []models.FactorReading
	err := r.db.WithContext(ctx).
		Where("metric = ?", metric).
		Find(&readings).Error
	return readings, err
}

// FindReadingsBySite 查找站点全部因子的最新读数
func (r *SiteRepo) FindReadingsBySite(ctx context.Context, siteID int64) ([]models.FactorReading, error) {
	var readings []models.FactorReading
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Find(&readings).Error
	return readings, err
}
