package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"unialloc/backend/internal/service"
	"unialloc/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportOfferingTimetable 导出开课排课表为 Excel
// GET /api/v1/offerings/:id/timetable/export
func (h *ExportHandler) ExportOfferingTimetable(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 19001, "开课ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportOfferingTimetable(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportMyCalendar 导出我的课表为 iCalendar
// GET /api/v1/timetable/my/export.ics
func (h *ExportHandler) ExportMyCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTutorCalendar(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// handleExportError 统一处理导出模块业务错误
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOfferingNotFound):
		response.NotFound(c, 19101, "开课记录不存在")
	case errors.Is(err, service.ErrExportNoEntries):
		response.NotFound(c, 19102, "暂无可导出的排课时段")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
