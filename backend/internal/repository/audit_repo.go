package repository

import (
	"context"

	"gorm.io/gorm"

	"unialloc/backend/internal/model"
)

// AuditFilter 审计查询过滤条件
type AuditFilter struct {
	Action  string
	ActorID string
	Offset  int
	Limit   int
}

// AuditRepository 审计记录数据访问接口（仅追加 + 查询）
type AuditRepository interface {
	Create(ctx context.Context, record *model.AuditRecord) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditRecord, int64, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, record *model.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditRecord, int64, error) {
	var records []model.AuditRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AuditRecord{})
	if filter.Action != "" {
		db = db.Where("action = ?", filter.Action)
	}
	if filter.ActorID != "" {
		db = db.Where("actor_id = ?", filter.ActorID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&records).Error
	return records, total, err
}
