package dto

import (
	"time"

	"unialloc/backend/internal/model"
)

// AuditListRequest 审计记录查询请求
type AuditListRequest struct {
	Action   string `form:"action"`
	ActorID  string `form:"actor_id"`
	Page     int    `form:"page,default=1"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// AuditResponse 审计记录响应
type AuditResponse struct {
	AuditID   string        `json:"audit_id"`
	Action    string        `json:"action"`
	ActorID   string        `json:"actor_id"`
	Target    model.JSONMap `json:"target,omitempty"`
	Metadata  model.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewAuditResponse 从模型构造响应
func NewAuditResponse(r *model.AuditRecord) AuditResponse {
	return AuditResponse{
		AuditID:   r.AuditID,
		Action:    r.Action,
		ActorID:   r.ActorID,
		Target:    r.Target,
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
	}
}
