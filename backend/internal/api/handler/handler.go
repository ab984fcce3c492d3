package handler

import "unialloc/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Allocation   *AllocationHandler
	Publish      *PublishHandler
	Timetable    *TimetableHandler
	Audit        *AuditHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Allocation:   NewAllocationHandler(svc.Allocation),
		Publish:      NewPublishHandler(svc.Publish),
		Timetable:    NewTimetableHandler(svc.Timetable, svc.Candidate),
		Audit:        NewAuditHandler(svc.Audit),
		Notification: NewNotificationHandler(svc.Notification),
		Export:       NewExportHandler(svc.Export),
	}
}
