package repository

import (
	"context"

	"gorm.io/gorm"

	"unialloc/backend/internal/model"
)

// EoiRepository 意向申请数据访问接口（只读当前版本行）
type EoiRepository interface {
	ListCurrentByUnit(ctx context.Context, unitID string, campusID *string) ([]model.EoiApplication, error)
}

type eoiRepo struct {
	db *gorm.DB
}

func NewEoiRepo(db *gorm.DB) EoiRepository {
	return &eoiRepo{db: db}
}

// ListCurrentByUnit 查询某单元的当前 EOI 行，偏好值小者优先（0 表示未标偏好，排最后）。
func (r *eoiRepo) ListCurrentByUnit(ctx context.Context, unitID string, campusID *string) ([]model.EoiApplication, error) {
	var eois []model.EoiApplication
	db := r.db.WithContext(ctx).
		Preload("Applicant").
		Where("unit_id = ? AND row_expired_at IS NULL", unitID)
	if campusID != nil {
		db = db.Where("campus_id = ? OR campus_id IS NULL", *campusID)
	}
	err := db.Order("NULLIF(preference, 0) ASC NULLS LAST, created_at ASC").
		Find(&eois).Error
	return eois, err
}
