package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unialloc/backend/internal/dto"
	"unialloc/backend/internal/model"
	"unialloc/backend/internal/repository"
)

var ErrNotificationNotFound = errors.New("通知不存在")

// Notifier 通知端口
// 投递为尽力而为：单个收件人失败由调用方隔离处理，不影响其余收件人。
type Notifier interface {
	Notify(ctx context.Context, userID, notifType, title, content string, relatedType, relatedID *string) error
}

// MailSender 邮件发送端口（测试可替换为内存实现）
type MailSender interface {
	Send(to, subject, body string) error
}

// NotificationService 通知业务接口
type NotificationService interface {
	Notifier
	ListMy(ctx context.Context, userID string, page, pageSize int) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	mailer MailSender
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, mailer MailSender, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, mailer: mailer, logger: logger}
}

// Notify 写入站内通知并尽力投递邮件。
// 站内通知落库失败视为投递失败返回；邮件失败仅记日志。
func (s *notificationService) Notify(ctx context.Context, userID, notifType, title, content string, relatedType, relatedID *string) error {
	notification := &model.Notification{
		UserID:      userID,
		Type:        notifType,
		Title:       title,
		Content:     content,
		RelatedType: relatedType,
		RelatedID:   relatedID,
	}
	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		return err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("查询通知收件人失败，跳过邮件投递",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if err := s.mailer.Send(user.Email, title, content); err != nil {
		s.logger.Warn("通知邮件投递失败",
			zap.String("user_id", userID),
			zap.String("email", user.Email),
			zap.Error(err),
		)
	}
	return nil
}

func (s *notificationService) ListMy(ctx context.Context, userID string, page, pageSize int) ([]dto.NotificationResponse, int64, error) {
	notifications, total, err := s.repo.Notification.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.Error(err))
		return nil, 0, err
	}

	resps := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		resps = append(resps, dto.NewNotificationResponse(&notifications[i]))
	}
	return resps, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	err := s.repo.Notification.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, userID)
}
