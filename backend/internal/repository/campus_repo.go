package repository

import (
	"context"

	"gorm.io/gorm"

	"unialloc/backend/internal/model"
)

// CampusRepository 校区数据访问接口
type CampusRepository interface {
	GetByID(ctx context.Context, id string) (*model.Campus, error)
	GetByName(ctx context.Context, name string) (*model.Campus, error)
	List(ctx context.Context) ([]model.Campus, error)
}

type campusRepo struct {
	db *gorm.DB
}

func NewCampusRepo(db *gorm.DB) CampusRepository {
	return &campusRepo{db: db}
}

func (r *campusRepo) GetByID(ctx context.Context, id string) (*model.Campus, error) {
	var campus model.Campus
	err := r.db.WithContext(ctx).
		Where("campus_id = ?", id).
		First(&campus).Error
	if err != nil {
		return nil, err
	}
	return &campus, nil
}

func (r *campusRepo) GetByName(ctx context.Context, name string) (*model.Campus, error) {
	var campus model.Campus
	err := r.db.WithContext(ctx).
		Where("campus_name = ?", name).
		First(&campus).Error
	if err != nil {
		return nil, err
	}
	return &campus, nil
}

func (r *campusRepo) List(ctx context.Context) ([]model.Campus, error) {
	var campuses []model.Campus
	err := r.db.WithContext(ctx).
		Order("campus_name ASC").
		Find(&campuses).Error
	return campuses, err
}
