package handler

import (
	"github.com/gin-gonic/gin"

	"unialloc/backend/internal/dto"
	"unialloc/backend/internal/service"
	"unialloc/backend/pkg/response"
)

// AuditHandler 审计模块 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// List 查询审计记录
// GET /api/v1/audits?action=&actor_id=&page=&page_size=
func (h *AuditHandler) List(c *gin.Context) {
	var req dto.AuditListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	records, total, err := h.auditSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, records, total, req.Page, req.PageSize)
}
