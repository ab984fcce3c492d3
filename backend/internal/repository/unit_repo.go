package repository

import (
	"context"

	"gorm.io/gorm"

	"unialloc/backend/internal/model"
)

// UnitRepository 单元数据访问接口
type UnitRepository interface {
	GetByID(ctx context.Context, id string) (*model.Unit, error)
	GetByCode(ctx context.Context, code string) (*model.Unit, error)
	List(ctx context.Context, offset, limit int) ([]model.Unit, int64, error)
}

type unitRepo struct {
	db *gorm.DB
}

func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db: db}
}

func (r *unitRepo) GetByID(ctx context.Context, id string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) GetByCode(ctx context.Context, code string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).
		Where("unit_code = ?", code).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) List(ctx context.Context, offset, limit int) ([]model.Unit, int64, error) {
	var units []model.Unit
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Unit{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("unit_code ASC").
		Find(&units).Error
	return units, total, err
}
