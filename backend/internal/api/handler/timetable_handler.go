package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unialloc/backend/internal/service"
	"unialloc/backend/pkg/response"
)

// TimetableHandler 排课查询模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
	candidateSvc service.CandidateService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService, candidateSvc service.CandidateService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc, candidateSvc: candidateSvc}
}

// ListByOffering 查询某开课的全部时段
// GET /api/v1/offerings/:id/timetable
func (h *TimetableHandler) ListByOffering(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 16001, "开课ID不能为空")
		return
	}

	entries, err := h.timetableSvc.ListByOffering(c.Request.Context(), id)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// MyTimetable 查询我的课表（导师本人）
// GET /api/v1/timetable/my
func (h *TimetableHandler) MyTimetable(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entries, err := h.timetableSvc.MyTimetable(c.Request.Context(), userID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// TutorDirectory 已分配导师名录
// GET /api/v1/tutors/allocated
func (h *TimetableHandler) TutorDirectory(c *gin.Context) {
	tutors, err := h.timetableSvc.AllocatedTutorDirectory(c.Request.Context())
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, gin.H{"list": tutors})
}

// FilterCandidates 查询某单元的候选导师（当前 EOI 行）
// GET /api/v1/units/:id/candidates?campus_id=&status=
func (h *TimetableHandler) FilterCandidates(c *gin.Context) {
	unitID := c.Param("id")
	if unitID == "" {
		response.BadRequest(c, 16001, "单元ID不能为空")
		return
	}

	var campusID *string
	if v := c.Query("campus_id"); v != "" {
		campusID = &v
	}

	candidates, err := h.candidateSvc.FilterCandidates(c.Request.Context(), unitID, campusID, c.Query("status"))
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, gin.H{"list": candidates})
}

// handleTimetableError 统一处理排课查询业务错误
func (h *TimetableHandler) handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOfferingNotFound):
		response.NotFound(c, 16101, "开课记录不存在")
	case errors.Is(err, service.ErrUnitNotFound):
		response.NotFound(c, 16102, "单元不存在")
	default:
		response.InternalError(c)
	}
}
