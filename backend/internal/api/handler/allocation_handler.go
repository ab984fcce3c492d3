package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unialloc/backend/internal/dto"
	"unialloc/backend/internal/service"
	"unialloc/backend/pkg/response"
)

// AllocationHandler 导师分配模块 HTTP 处理器
// admin 与 coordinator 经由路由上的角色中间件进入，逻辑本身与角色无关。
type AllocationHandler struct {
	allocationSvc service.AllocationService
}

// NewAllocationHandler 创建 AllocationHandler
func NewAllocationHandler(allocationSvc service.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocationSvc: allocationSvc}
}

// Allocate 分配导师到时段
// POST /api/v1/allocations
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.allocationSvc.Allocate(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleAllocationError(c, err)
		return
	}

	// 冲突驳回等软失败也是 200：status 字段承载结果
	response.OK(c, result)
}

// Remove 解除时段分配
// POST /api/v1/allocations/remove
func (h *AllocationHandler) Remove(c *gin.Context) {
	var req dto.RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.allocationSvc.Remove(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleAllocationError(c, err)
		return
	}

	response.OK(c, result)
}

// Reassign 改派时段给另一导师
// POST /api/v1/allocations/reassign
func (h *AllocationHandler) Reassign(c *gin.Context) {
	var req dto.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.allocationSvc.Reassign(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleAllocationError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAllocationError 统一处理分配模块业务错误
func (h *AllocationHandler) handleAllocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSlot):
		response.BadRequest(c, 14101, "时段不合法")
	case errors.Is(err, dto.ErrInvalidDate):
		response.BadRequest(c, 14104, "日期格式必须为 YYYY-MM-DD")
	case errors.Is(err, service.ErrOfferingNotFound):
		response.NotFound(c, 14102, "开课记录不存在")
	case errors.Is(err, service.ErrTutorNotFound):
		response.NotFound(c, 14103, "导师不存在")
	default:
		response.InternalError(c)
	}
}
