package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unialloc/backend/internal/dto"
	"unialloc/backend/internal/repository"
)

var ErrUnitNotFound = errors.New("单元不存在")

// CandidateService 候选导师查询接口
// 只读当前（row_expired_at IS NULL）EOI 行，按偏好升序返回；
// EOI 导入与版本管理由外部子系统负责。
type CandidateService interface {
	FilterCandidates(ctx context.Context, unitID string, campusID *string, status string) ([]dto.CandidateResponse, error)
}

type candidateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCandidateService 创建 CandidateService 实例
func NewCandidateService(repo *repository.Repository, logger *zap.Logger) CandidateService {
	return &candidateService{repo: repo, logger: logger}
}

func (s *candidateService) FilterCandidates(ctx context.Context, unitID string, campusID *string, status string) ([]dto.CandidateResponse, error) {
	if _, err := s.repo.Unit.GetByID(ctx, unitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		s.logger.Error("查询单元失败", zap.Error(err))
		return nil, err
	}

	eois, err := s.repo.Eoi.ListCurrentByUnit(ctx, unitID, campusID)
	if err != nil {
		s.logger.Error("查询候选导师失败", zap.Error(err))
		return nil, err
	}

	candidates := make([]dto.CandidateResponse, 0, len(eois))
	for i := range eois {
		eoi := &eois[i]
		if status != "" && eoi.Status != status {
			continue
		}
		c := dto.CandidateResponse{
			UserID:     eoi.ApplicantUserID,
			Preference: eoi.Preference,
			Status:     eoi.Status,
			CampusID:   eoi.CampusID,
		}
		if eoi.Applicant != nil {
			c.Name = eoi.Applicant.FullName()
			c.Email = eoi.Applicant.Email
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
