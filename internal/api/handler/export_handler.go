package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportCourse 导出课程成绩
// GET /api/v1/courses/:id/export
func (h *ExportHandler) ExportCourse(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	courseID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCourse(c.Request.Context(), actor, courseID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if buf == nil {
		response.NotFound(c, 40401, "课程不存在")
		return
	}
	response.XLSX(c, buf, filename)
}
