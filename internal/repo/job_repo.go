package repo

import (
	"context"

	"aquawatch/internal/models"

	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

type JobRepo struct {
	orz.Repository[models.SiteJobInstance, int64]
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo {
	return &JobRepo{
		Repository: orz.NewRepository[models.SiteJobInstance, int64](db),
		db:         db,
	}
}

// CreateJob 创建任务实例
func (r *JobRepo) CreateJob(ctx context.Context, job *models.SiteJobInstance) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// UpdateJob 更新任务实例
func (r *JobRepo) UpdateJob(ctx context.Context, job *models.SiteJobInstance) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// GetJob 获取任务实例
func (r *JobRepo) GetJob(ctx context.Context, id int64) (*models.SiteJobInstance, error) {
	var job models.SiteJobInstance
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindByStatus 按状态查找任务实例
func (r *JobRepo) FindByStatus(ctx context.Context, status models.JobInstanceStatus) ([]models.SiteJobInstance, error) {
	var jobs []models.SiteJobInstance
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&jobs).Error
	return jobs, err
}

// FindUnfinished 查找所有未结束的任务实例
func (r *JobRepo) FindUnfinished(ctx context.Context) ([]models.SiteJobInstance, error) {
	var jobs []models.SiteJobInstance
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.JobInstanceStatus{
			models.JobStatusPending,
			models.JobStatusExpiring,
			models.JobStatusInProgress,
		}).
		Find(&jobs).Error
	return jobs, err
}
