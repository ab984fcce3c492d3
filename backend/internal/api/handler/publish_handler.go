package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"unialloc/backend/internal/dto"
	"unialloc/backend/internal/service"
	"unialloc/backend/pkg/response"
)

// PublishHandler 发布门禁模块 HTTP 处理器
type PublishHandler struct {
	publishSvc service.PublishService
}

// NewPublishHandler 创建 PublishHandler
func NewPublishHandler(publishSvc service.PublishService) *PublishHandler {
	return &PublishHandler{publishSvc: publishSvc}
}

// CheckUnitStatus 查询开课发布状态
// GET /api/v1/offerings/status?unit_id=&campus_id=&term=&year=
func (h *PublishHandler) CheckUnitStatus(c *gin.Context) {
	unitID := c.Query("unit_id")
	campusID := c.Query("campus_id")
	term := c.Query("term")
	year, err := strconv.Atoi(c.Query("year"))
	if unitID == "" || campusID == "" || term == "" || err != nil {
		response.BadRequest(c, 15001, "unit_id/campus_id/term/year 均不能为空")
		return
	}

	status, svcErr := h.publishSvc.CheckUnitStatus(c.Request.Context(), unitID, campusID, term, year)
	if svcErr != nil {
		h.handlePublishError(c, svcErr)
		return
	}

	response.OK(c, status)
}

// DecidePublish 发布决策
// POST /api/v1/offerings/publish
func (h *PublishHandler) DecidePublish(c *gin.Context) {
	var req dto.PublishDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.publishSvc.DecidePublish(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handlePublishError(c, err)
		return
	}

	// BLOCKED / ADJUST_REQUIRED 均为正常业务结果
	response.OK(c, result)
}

// handlePublishError 统一处理发布模块业务错误
func (h *PublishHandler) handlePublishError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOfferingNotFound):
		response.NotFound(c, 15101, "开课记录不存在")
	default:
		response.InternalError(c)
	}
}
