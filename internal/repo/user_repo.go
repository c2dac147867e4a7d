package repo

import (
	"context"

	"aquawatch/internal/models"

	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

type UserRepo struct {
	orz.Repository[models.User, int64]
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{
		Repository: orz.NewRepository[models.User, int64](db),
		db:         db,
	}
}

// GetUser 获取用户
func (r *UserRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs 按用户ID集合查找启用的用户
func (r *UserRepo) FindByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id IN ? AND enabled = ?", ids, true).
		Find(&users).Error
	return users, err
}

// FindByDepartmentIDs 查找部门下所有启用的用户
func (r *UserRepo) FindByDepartmentIDs(ctx context.Context, departmentIDs []int64) ([]models.User, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_departments ON user_departments.user_id = users.id").
		Where("user_departments.department_id IN ? AND users.enabled = ?", departmentIDs, true).
		Distinct("users.*").
		Find(&users).Error
	return users, err
}

// FindAll 查找所有用户
func (r *UserRepo) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Find(&users).Error
	return users, err
}
