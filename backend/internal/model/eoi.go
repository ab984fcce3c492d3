package model

import "time"

// EoiApplication 意向申请表（EOI）— 对应 eoi_applications
//
// EOI 的导入与 SCD Type II 版本管理由外部子系统负责；核心只读取
// row_expired_at IS NULL 的当前行，用于候选导师查询。
type EoiApplication struct {
	EoiID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"eoi_id"`
	ApplicantUserID string     `gorm:"type:uuid;not null;index"                       json:"applicant_user_id"`
	UnitID          string     `gorm:"type:uuid;not null;index"                       json:"unit_id"`
	CampusID        *string    `gorm:"type:uuid"                                      json:"campus_id,omitempty"`
	Preference      int        `gorm:"type:smallint;not null;default:0"               json:"preference"` // 1 为最优；0 表示未标偏好
	Status          string     `gorm:"type:varchar(20);not null;default:'submitted'"  json:"status"`
	RowEffectiveAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"row_effective_at"`
	RowExpiredAt    *time.Time `gorm:"index"                                          json:"row_expired_at,omitempty"` // NULL = 当前版本
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Applicant *User   `gorm:"foreignKey:ApplicantUserID;references:UserID" json:"applicant,omitempty"`
	Unit      *Unit   `gorm:"foreignKey:UnitID;references:UnitID"          json:"unit,omitempty"`
	Campus    *Campus `gorm:"foreignKey:CampusID;references:CampusID"      json:"campus,omitempty"`
}

// TableName 指定表名
func (EoiApplication) TableName() string { return "eoi_applications" }
