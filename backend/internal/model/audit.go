package model

import "time"

// ── 审计动作常量 ──

const (
	AuditAllocationAttempted = "ALLOCATION_ATTEMPTED"
	AuditOverrideAccepted    = "OVERRIDE_ACCEPTED"
	AuditAllocated           = "ALLOCATED"
	AuditAllocationRemoved   = "ALLOCATION_REMOVED"
	AuditPublishApproved     = "PUBLISH_APPROVED"
	AuditPublishRejected     = "PUBLISH_REJECTED"
	AuditTutorNotified       = "TUTOR_NOTIFIED"
)

// AuditRecord 审计记录表 — 对应 audit_records（仅追加，核心不修改不删除）
type AuditRecord struct {
	AuditID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_id"`
	Action    string    `gorm:"type:varchar(50);not null;index"                json:"action"`
	ActorID   string    `gorm:"type:uuid;not null;index"                       json:"actor_id"`
	Target    JSONMap   `gorm:"type:jsonb"                                     json:"target,omitempty"`
	Metadata  JSONMap   `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index"       json:"created_at"`
}

// TableName 指定表名
func (AuditRecord) TableName() string { return "audit_records" }
