package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unialloc/backend/internal/dto"
	"unialloc/backend/internal/repository"
)

// TimetableService 排课查询业务接口
type TimetableService interface {
	// ListByOffering 查询某开课的全部时段（含未分配）
	ListByOffering(ctx context.Context, offeringID string) ([]dto.TimetableEntryResponse, error)
	// MyTimetable 查询导师本人的全部分配时段
	MyTimetable(ctx context.Context, tutorUserID string) ([]dto.TimetableEntryResponse, error)
	// AllocatedTutorDirectory 全部持有分配的导师名录
	AllocatedTutorDirectory(ctx context.Context) ([]dto.TutorBrief, error)
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

func (s *timetableService) ListByOffering(ctx context.Context, offeringID string) ([]dto.TimetableEntryResponse, error) {
	if _, err := s.repo.Offering.GetByID(ctx, offeringID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		s.logger.Error("查询开课记录失败", zap.Error(err))
		return nil, err
	}

	entries, err := s.repo.Timetable.ListByOffering(ctx, offeringID)
	if err != nil {
		s.logger.Error("查询开课时段失败", zap.Error(err))
		return nil, err
	}

	resps := make([]dto.TimetableEntryResponse, 0, len(entries))
	for i := range entries {
		resps = append(resps, dto.NewTimetableEntryResponse(&entries[i]))
	}
	return resps, nil
}

func (s *timetableService) MyTimetable(ctx context.Context, tutorUserID string) ([]dto.TimetableEntryResponse, error) {
	entries, err := s.repo.Timetable.ListByTutor(ctx, tutorUserID)
	if err != nil {
		s.logger.Error("查询导师课表失败", zap.Error(err))
		return nil, err
	}

	resps := make([]dto.TimetableEntryResponse, 0, len(entries))
	for i := range entries {
		resps = append(resps, dto.NewTimetableEntryResponse(&entries[i]))
	}
	return resps, nil
}

func (s *timetableService) AllocatedTutorDirectory(ctx context.Context) ([]dto.TutorBrief, error) {
	ids, err := s.repo.Timetable.DistinctAllocatedTutorIDs(ctx)
	if err != nil {
		s.logger.Error("查询已分配导师 ID 失败", zap.Error(err))
		return nil, err
	}

	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询导师信息失败", zap.Error(err))
		return nil, err
	}

	tutors := make([]dto.TutorBrief, 0, len(users))
	for i := range users {
		tutors = append(tutors, dto.TutorBrief{
			UserID: users[i].UserID,
			Name:   users[i].FullName(),
			Email:  users[i].Email,
		})
	}
	return tutors, nil
}
