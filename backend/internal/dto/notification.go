package dto

import (
	"time"

	"unialloc/backend/internal/model"
)

// NotificationResponse 站内通知响应
type NotificationResponse struct {
	NotificationID string    `json:"notification_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	RelatedType    *string   `json:"related_type,omitempty"`
	RelatedID      *string   `json:"related_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewNotificationResponse 从模型构造响应
func NewNotificationResponse(n *model.Notification) NotificationResponse {
	return NotificationResponse{
		NotificationID: n.NotificationID,
		Type:           n.Type,
		Title:          n.Title,
		Content:        n.Content,
		IsRead:         n.IsRead,
		RelatedType:    n.RelatedType,
		RelatedID:      n.RelatedID,
		CreatedAt:      n.CreatedAt,
	}
}
